package p2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

func TestWorkerSingleWindowCoversWholeSweep(t *testing.T) {
	// x=100, y=3: z = x/y = 33. A single window [2, 33) covers the whole
	// outer sweep, so Worker's own partial sum plus the orchestrator's
	// stitch (pixLow starts at 0, so the stitch adds nothing) must equal
	// the full round-loop result.
	svc := primes.NewService()
	res := Worker(svc, WorkerInput{X: 100, Y: 3, Z: 33, Low: 2, ThreadNum: 0, ThreadDistance: 31})

	want := P2(100, 3, 1, Options{}) - combinatorialTerm(piUpTo(3), piUpTo(10))
	require.Equal(t, want, res.PartialSum)
}

func TestCountPrimesAdvancesCursorAndCounts(t *testing.T) {
	svc := primes.NewService()
	fc := svc.Forward(2, 30)
	next := fc.Next()

	count := countPrimes(fc, &next, 10)
	require.Equal(t, int64(4), count) // 2, 3, 5, 7
	require.Equal(t, int64(11), next)
}

func TestBalanceLoadDoublesOnFastRound(t *testing.T) {
	got := balanceLoad(1<<20, 0, 1<<30, 4, 10*time.Second, 1<<10)
	require.Equal(t, int64(1<<21), got)
}

func TestBalanceLoadHalvesOnSlowRound(t *testing.T) {
	got := balanceLoad(1<<20, 0, 1<<30, 4, 90*time.Second, 1<<10)
	require.Equal(t, int64(1<<19), got)
}

func TestBalanceLoadClampsToMinAndMax(t *testing.T) {
	low, z := int64(0), int64(100)
	got := balanceLoad(1, low, z, 4, 90*time.Second, 1<<10)
	require.Equal(t, int64(1<<10), got, "clamped to min_distance")

	got = balanceLoad(1<<40, low, z, 4, 10*time.Second, 1)
	require.Equal(t, int64(25), got, "clamped to ceil((z-low)/threads)")
}

func TestCombinatorialTerm(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{0, 0, 0},
		{2, 2, 0},
		{5, 2, 9},
	}
	for _, c := range cases {
		require.Equal(t, c.want, combinatorialTerm(c.a, c.b), "C(%d,%d)", c.a, c.b)
	}
}

func piUpTo(n int64) int64 {
	svc := primes.NewService()
	return svc.Pi(n)
}
