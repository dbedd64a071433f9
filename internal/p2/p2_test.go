package p2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spsforks/kimwalisch-primecount/internal/int128"
)

// bruteForceP2 implements spec.md §3's direct definition -- count n <= x
// such that n = p*q for primes y < p <= q with q <= x/p -- as an
// independent cross-check that doesn't share any code with the
// worker/orchestrator under test.
func bruteForceP2(x, y int64) int64 {
	isPrime := func(n int64) bool {
		if n < 2 {
			return false
		}
		for d := int64(2); d*d <= n; d++ {
			if n%d == 0 {
				return false
			}
		}
		return true
	}

	var count int64
	for p := y + 1; p*p <= x; p++ {
		if !isPrime(p) {
			continue
		}
		for q := p; p*q <= x; q++ {
			if q > y && isPrime(q) {
				count++
			}
		}
	}
	return count
}

func TestP2MatchesBruteForce(t *testing.T) {
	// spec.md's own end-to-end table flags the (x=10, y=2) row as
	// unreliable ("recompute per definition"); every other row here is
	// cross-checked against an independently written brute-force
	// definition instead of hardcoded expectations.
	cases := []struct{ x, y int64 }{
		{100, 3},
		{1000, 10},
		{10000, 25},
		{10, 2},
		{4, 1},
		{50, 5},
		{2, 1},
	}
	for _, c := range cases {
		want := bruteForceP2(c.x, c.y)
		got := P2(c.x, c.y, 4, Options{})
		require.Equal(t, want, got, "P2(%d, %d)", c.x, c.y)
	}
}

func TestP2MatchesSpecTable(t *testing.T) {
	// Non-flagged rows from spec.md's end-to-end test table.
	cases := []struct {
		x, y, want int64
	}{
		{100, 3, 8},
		{1000, 10, 28},
		{10000, 25, 99},
	}
	for _, c := range cases {
		require.Equal(t, c.want, P2(c.x, c.y, 4, Options{}), "P2(%d, %d)", c.x, c.y)
	}
}

func TestP2ZeroBelowFour(t *testing.T) {
	require.Equal(t, int64(0), P2(3, 1, 2, Options{}))
	require.Equal(t, int64(0), P2(0, 1, 2, Options{}))
}

func TestP2IsIndependentOfThreadCount(t *testing.T) {
	for _, threads := range []int{1, 2, 3, 8, 17} {
		got := P2(10000, 25, threads, Options{})
		require.Equal(t, int64(413), got, "threads=%d", threads)
	}
}

func TestP2IsIndependentOfStride(t *testing.T) {
	want := P2(10000, 25, 4, Options{})
	for _, dist := range []int64{4, 16, 1 << 10, 1 << 20} {
		got := P2(10000, 25, 4, Options{MinDistance: dist})
		require.Equal(t, want, got, "min_distance=%d", dist)
	}
}

func TestDistributedP2MatchesSingleProcess(t *testing.T) {
	want := P2(10000, 25, 4, Options{})

	// A genuine multi-rank run requires one process per rank; here each
	// rank's contribution is summed directly (bypassing AllReduceSum,
	// which Local already exercises) to confirm shard partitioning and
	// independent prefix re-derivation reproduce the single-process
	// result exactly, per spec.md's determinism invariant.
	for _, ranks := range []int{1, 2, 3, 5} {
		got := sumAcrossRanks(10000, 25, 4, ranks)
		require.Equal(t, want, got, "ranks=%d", ranks)
	}
}

// fixedRankGroup reports a fixed rank/size without performing any real
// reduction, letting the test drive each rank's shard computation
// directly and sum the results in plain Go.
type fixedRankGroup struct {
	rank, size int
}

func (g fixedRankGroup) Rank() int                  { return g.rank }
func (g fixedRankGroup) Size() int                  { return g.size }
func (g fixedRankGroup) AllReduceSum(v int64) int64 { return v }
func (g fixedRankGroup) AllReduceSumWide(v int128.Int128) int128.Int128 { return v }

func sumAcrossRanks(x, y int64, threads, ranks int) int64 {
	var total int64
	// Every rank's DistributedP2 call already adds the full
	// combinatorial term (it is pure and identical for every rank), so
	// summing all ranks' results directly would double count it; strip
	// it back out for every rank but one before summing.
	for rank := 0; rank < ranks; rank++ {
		group := fixedRankGroup{rank: rank, size: ranks}
		v := DistributedP2(x, y, threads, group, Options{})
		if rank == 0 {
			total += v
		} else {
			total += v - seedTermOf(x, y)
		}
	}
	return total
}

func seedTermOf(x, y int64) int64 {
	a := bruteForcePi(y)
	b := bruteForcePi(isqrtForTest(x))
	return combinatorialTerm(a, b)
}

func bruteForcePi(n int64) int64 {
	isPrime := func(v int64) bool {
		if v < 2 {
			return false
		}
		for d := int64(2); d*d <= v; d++ {
			if v%d == 0 {
				return false
			}
		}
		return true
	}
	var count int64
	for i := int64(2); i <= n; i++ {
		if isPrime(i) {
			count++
		}
	}
	return count
}

func isqrtForTest(x int64) int64 {
	r := int64(0)
	for (r+1)*(r+1) <= x {
		r++
	}
	return r
}
