package p2

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spsforks/kimwalisch-primecount/internal/int128"
	"github.com/spsforks/kimwalisch-primecount/internal/oracle"
	"github.com/spsforks/kimwalisch-primecount/internal/pmath"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// CombinatorialTermWide is combinatorialTerm computed at full 128-bit
// width: C(a,b) tracks x's own magnitude, not the (typically much
// smaller) pi-counts a and b that feed it, so narrowing it to int64
// would silently overflow for large x even though a and b themselves
// fit comfortably in int64.
func CombinatorialTermWide(a, b int64) int128.Int128 {
	ta := int128.FromInt64(a - 2).MulInt64(a + 1).DivInt64(2)
	tb := int128.FromInt64(b - 2).MulInt64(b + 1).DivInt64(2)
	return ta.Sub(tb)
}

// runRoundsWide is runRounds generalized to a 128-bit accumulator. The
// stride, low/z bounds and pixLow bookkeeping all stay int64 -- only the
// per-worker partial sums and the running total widen.
func runRoundsWide(svc *primes.Service, x int128.Int128, y, z, low, pixLow int64, threads int, opts Options) int128.Int128 {
	threadDistance := opts.minDistance()
	sum := int128.FromInt64(0)

	for low < z {
		maxThreads := pmath.CeilDiv(z-low, threadDistance)
		activeThreads := int(pmath.InBetween(int64(1), int64(threads), maxThreads))

		slots := make([]slotWide, activeThreads)
		roundStart := time.Now()

		g := new(errgroup.Group)
		for i := 0; i < activeThreads; i++ {
			i := i
			g.Go(func() error {
				res := WorkerWide(svc, WorkerInputWide{
					X: x, Y: y, Z: z, Low: low,
					ThreadNum:      int64(i),
					ThreadDistance: threadDistance,
				})
				slots[i] = slotWide{partialSum: res.PartialSum, pix: res.Pix, pixCount: res.PixCount}
				return nil
			})
		}
		_ = g.Wait()

		for i := range slots {
			sum = sum.Add(slots[i].partialSum)
		}

		low += threadDistance * int64(activeThreads)
		threadDistance = balanceLoad(threadDistance, low, z, activeThreads, time.Since(roundStart), opts.minDistance())

		for i := range slots {
			count := slots[i].pixCount
			sum = sum.Add(int128.FromInt64(pixLow).MulInt64(count))
			pixLow += slots[i].pix
		}

		if opts.Logger != nil {
			opts.Logger.Debugf("p2 round (wide): low=%d z=%d thread_distance=%d threads=%d", low, z, threadDistance, activeThreads)
		}
		if opts.Status != nil {
			opts.Status(min64(low, z), z)
		}
	}

	return sum
}

// P2Wide is P2 generalized to a 128-bit x, for inputs beyond int64
// range (spec.md §4.5's optional wide path).
func P2Wide(x int128.Int128, y int64, threads int, opts Options) int128.Int128 {
	if x.Less(int128.FromInt64(4)) {
		return int128.FromInt64(0)
	}

	svc := primes.NewService()
	ora := oracle.New(svc)

	a := ora.PiSimple(y)
	b := ora.PiSimple(int128.Isqrt(x))
	if a >= b {
		return int128.FromInt64(0)
	}

	z := x.QuoInt64(max64(y, 1))

	sum := CombinatorialTermWide(a, b)
	sum = sum.Add(runRoundsWide(svc, x, y, z, 2, 0, threads, opts))
	return sum
}
