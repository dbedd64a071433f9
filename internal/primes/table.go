// Package primes implements the Prime Iterator Service (spec.md §4.1):
// a growable prime table backing the forward and reverse cursors the P2
// worker needs, without ever committing to a fixed upper bound up front.
//
// The odd-only Eratosthenes sieve and its init/clear/find helper split is
// grounded on fedesilva-minnieml/benchmark/sieve.go and sieve-opt.go; the
// mutex-guarded grow-on-demand table shape is grounded on
// other_examples/eenblam-protohackers__sieve.go's Sieve type, generalized
// from a fixed solveTo bound to regrowing as higher bounds are requested.
package primes

import "sync"

// Table is a thread-safe, monotonically growable table of primes in
// ascending order. Callers never see sieve internals; they ask for
// growth to a bound and then read back primes by index or by value.
type Table struct {
	mu     sync.RWMutex
	primes []int64 // ascending, 0-indexed
	bound  int64   // highest n for which primality is known
}

// NewTable returns an empty table; the first GrowTo call performs the
// initial sieve.
func NewTable() *Table {
	return &Table{}
}

// GrowTo ensures the table knows every prime <= n, re-sieving from
// scratch if the current bound is insufficient. Re-sieving from zero
// rather than extending an existing sieve keeps the implementation
// simple; P2's callers grow the table a handful of times per run, not
// per window, so the relieving cost is amortized.
func (t *Table) GrowTo(n int64) {
	if n < 2 {
		return
	}

	t.mu.RLock()
	enough := n <= t.bound
	t.mu.RUnlock()
	if enough {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= t.bound {
		return
	}

	t.primes = sieveOdd(n)
	t.bound = n
}

// sieveOdd returns every prime <= n via an odd-only Eratosthenes sieve:
// bit i of the working array stands for the odd number 2i+1, so the
// array is half the size a naive sieve would need. The init/clear/find
// split mirrors initSieve/clearMultiples/findNextPrime in
// fedesilva-minnieml/benchmark/sieve.go.
func sieveOdd(n int64) []int64 {
	if n < 2 {
		return nil
	}

	size := (n + 1) / 2 // index i represents 2i+1, i in [0, size)
	isOdd := make([]bool, size)
	initOdd(isOdd)
	isOdd[0] = false // 1 is not prime

	limit := int64(1)
	for limit*limit <= n {
		limit += 2
	}

	for factor := int64(3); factor <= limit; factor += 2 {
		i := factor / 2
		if i >= size || !isOdd[i] {
			continue
		}
		clearOddMultiples(isOdd, factor, n)
	}

	out := make([]int64, 0, estimatePrimeCount(n))
	out = append(out, 2)
	for i := int64(1); i < size; i++ {
		if isOdd[i] {
			out = append(out, 2*i+1)
		}
	}
	return out
}

func initOdd(arr []bool) {
	for i := range arr {
		arr[i] = true
	}
}

func clearOddMultiples(arr []bool, factor, n int64) {
	start := factor * factor
	for m := start; m <= n; m += 2 * factor {
		arr[m/2] = false
	}
}

// estimatePrimeCount sizes the output slice's initial capacity using the
// classic n/ln(n) prime-counting approximation, padded generously; an
// under-estimate only costs a reallocation, never correctness.
func estimatePrimeCount(n int64) int64 {
	if n < 16 {
		return 8
	}
	f := float64(n)
	approx := f / (logApprox(f) - 1.1)
	return int64(approx) + 16
}

func logApprox(x float64) float64 {
	// Repeated division by e approximates ln(x) without pulling in math
	// just for a capacity hint; precision doesn't matter here.
	const e = 2.718281828459045
	count := 0.0
	for x > e {
		x /= e
		count++
	}
	return count + (x - 1)
}

// At returns the prime at the given 0-indexed position.
func (t *Table) At(i int) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primes[i]
}

// Len returns the number of primes currently known.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.primes)
}

// Pi returns the count of primes <= x, via binary search over the
// ascending table. GrowTo(x) must have been called first (or a bound
// covering x reached some other way); Pi does not grow the table itself,
// since growth is a distinct, explicitly-requested operation.
func (t *Table) Pi(x int64) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lo, hi := 0, len(t.primes)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.primes[mid] <= x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return int64(lo)
}

// indexAtLeast returns the smallest index i such that primes[i] >= n, or
// len(primes) if no such prime is known.
func (t *Table) indexAtLeast(n int64) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lo, hi := 0, len(t.primes)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.primes[mid] < n {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// indexAtMost returns the largest index i such that primes[i] <= n, or -1
// if no such prime is known.
func (t *Table) indexAtMost(n int64) int {
	return t.indexAtLeast(n+1) - 1
}
