// Package p2 implements the second partial sieve function P2(x, y): the
// worker that evaluates one fixed-width window of the outer sweep, the
// orchestrator that dispatches windows across a round of workers with an
// adaptive stride, and the serial stitch that restores the missing
// prefix each worker's partial sum owes.
//
// Grounded directly on original_source/src/P2.cpp's P2_thread/P2_OpenMP
// pair, translated goroutine-for-thread with the same variable roles.
package p2

import (
	"github.com/spsforks/kimwalisch-primecount/internal/pmath"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// cacheLineSize is the assumed cache line width used to pad per-worker
// result slots so concurrent writes from different goroutines never
// share a line, grounded on
// other_examples/rutvijjoshi26-parallel-compressor-go__wsdeque.go's
// identical constant and padding idiom.
const cacheLineSize = 64

// slot holds one worker's contribution for a round, padded to its own
// cache line. This is the Go equivalent of the original's
// aligned_vector<int64_t> pix/pix_counts arrays.
type slot struct {
	partialSum int64
	pix        int64
	pixCount   int64
	_          [cacheLineSize - 24]byte
}

// WorkerInput describes one fixed-width window of the outer sweep,
// identical in shape to the arguments P2_thread takes in the original.
type WorkerInput struct {
	X              int64
	Y              int64
	Z              int64
	Low            int64
	ThreadNum      int64
	ThreadDistance int64
}

// WorkerResult is one window's contribution: a partial sum plus the
// pix/pixCount bookkeeping the orchestrator's serial stitch needs to
// restore the prefix term this window's sum is missing.
type WorkerResult struct {
	PartialSum int64
	Pix        int64
	PixCount   int64
}

// countPrimes advances fc, counting primes up to and including stop,
// mirroring the original's count_primes(it, prime, stop): it reuses the
// cursor's already-fetched next value rather than re-querying the table,
// so the same helper serves both the descending loop body and the
// window's final flush to high-1.
func countPrimes(fc *primes.ForwardCursor, next *int64, stop int64) int64 {
	var count int64
	for *next != 0 && *next <= stop {
		count++
		*next = fc.Next()
	}
	return count
}

// Worker evaluates one window [low + threadNum*distance, min(low+(threadNum+1)*distance, z))
// of the outer sweep, per spec.md §4.3. It is a pure function of its
// input and the shared prime service; every goroutine in a round runs
// this concurrently with no shared mutable state beyond the read-only
// service.
func Worker(svc *primes.Service, in WorkerInput) WorkerResult {
	myLow := in.Low + in.ThreadDistance*in.ThreadNum
	myHigh := min64(myLow+in.ThreadDistance, in.Z)

	start := max64(in.X/myHigh, in.Y)
	stop := min64(in.X/myLow, pmath.Isqrt(in.X))

	rc := svc.Reverse(stop, start)
	fc := svc.Forward(myLow, myHigh)

	next := fc.Next()
	prime := rc.Prev()

	var pix, pixCount, sum int64
	for prime > start {
		xp := in.X / prime
		if xp >= myHigh {
			break
		}
		pix += countPrimes(fc, &next, xp)
		pixCount++
		sum += pix
		prime = rc.Prev()
	}

	pix += countPrimes(fc, &next, myHigh-1)

	return WorkerResult{PartialSum: sum, Pix: pix, PixCount: pixCount}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
