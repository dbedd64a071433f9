package p2

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spsforks/kimwalisch-primecount/internal/logging"
	"github.com/spsforks/kimwalisch-primecount/internal/oracle"
	"github.com/spsforks/kimwalisch-primecount/internal/pmath"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// MinDistance is the default stride floor (2^23), the original's
// min_distance constant. Tests that want to exercise load balancing at a
// small scale override it via Options.MinDistance instead of mutating
// this package variable.
var MinDistance int64 = 1 << 23

// StatusFunc reports round progress as (low, z): the outer sweep's
// current position and its end, letting the caller render a percentage
// at whatever precision it likes.
type StatusFunc func(low, z int64)

// Options carries everything about a P2 run that isn't x, y, or the
// thread count: where to report progress, where to log round
// diagnostics, and the stride floor to start from.
type Options struct {
	Status      StatusFunc
	Logger      logging.Logger
	MinDistance int64
}

func (o Options) minDistance() int64 {
	if o.MinDistance > 0 {
		return o.MinDistance
	}
	return MinDistance
}

// combinatorialTerm computes C(a, b) = (a-2)(a+1)/2 - (b-2)(b+1)/2, the
// closed-form sum of -(i-1) over a < i <= b: the pi(p_i) - 1 term each
// outer prime p_i subtracts from pi(x/p_i), which depends only on a and
// b and so never has to come from the sweep. Copied verbatim from the
// original's P2_OpenMP rather than from spec.md's prose restatement of
// it, per the sign-convention discrepancy noted in DESIGN.md.
func combinatorialTerm(a, b int64) int64 {
	return (a-2)*(a+1)/2 - (b-2)*(b+1)/2
}

// balanceLoad adjusts the stride for the next round based on how long
// the round that just finished took: double it if the round was fast
// (<60s), halve it if it was slow (>60s), then clamp to
// [minDistance, ceil((z-low)/threads)]. A standalone, unit-testable
// function, mirroring the original's standalone balanceLoad rather than
// inlining this into the round loop.
func balanceLoad(distance, low, z int64, threads int, elapsed time.Duration, minDistance int64) int64 {
	seconds := elapsed.Seconds()
	if seconds < 60 {
		distance *= 2
	}
	if seconds > 60 {
		distance /= 2
	}
	maxDistance := pmath.CeilDiv(z-low, int64(threads))
	return pmath.InBetween(minDistance, distance, maxDistance)
}

// runRounds runs the round loop over [low, z), accumulating the window
// sweep's contribution to the sum. pixLow is the caller's independently
// derived pi(low-1): 0 when low starts at 2 (P2's single-process entry
// point), or the shard's own oracle-derived prefix when called from a
// distributed rank (spec.md §4.4).
func runRounds(svc *primes.Service, x, y, z, low, pixLow int64, threads int, opts Options) int64 {
	threadDistance := opts.minDistance()
	var sum int64

	for low < z {
		maxThreads := pmath.CeilDiv(z-low, threadDistance)
		activeThreads := int(pmath.InBetween(int64(1), int64(threads), maxThreads))

		slots := make([]slot, activeThreads)
		roundStart := time.Now()

		g := new(errgroup.Group)
		for i := 0; i < activeThreads; i++ {
			i := i
			g.Go(func() error {
				res := Worker(svc, WorkerInput{
					X: x, Y: y, Z: z, Low: low,
					ThreadNum:      int64(i),
					ThreadDistance: threadDistance,
				})
				slots[i] = slot{partialSum: res.PartialSum, pix: res.Pix, pixCount: res.PixCount}
				return nil
			})
		}
		_ = g.Wait() // Worker never returns an error; Wait only joins the goroutines.

		for i := range slots {
			sum += slots[i].partialSum
		}

		low += threadDistance * int64(activeThreads)
		threadDistance = balanceLoad(threadDistance, low, z, activeThreads, time.Since(roundStart), opts.minDistance())

		for i := range slots {
			count := slots[i].pixCount
			sum += pixLow * count
			pixLow += slots[i].pix
		}

		if opts.Logger != nil {
			opts.Logger.Debugf("p2 round: low=%d z=%d thread_distance=%d threads=%d", low, z, threadDistance, activeThreads)
		}
		if opts.Status != nil {
			opts.Status(min64(low, z), z)
		}
	}

	return sum
}

// P2 computes the second partial sieve function (spec.md §3) for the
// given x, y, using up to threads goroutines per round. Mirrors the
// original's P2_OpenMP entry point: the x < 4 and a >= b early-outs, the
// C(a,b) seed term, then the round loop starting from low = 2.
func P2(x, y int64, threads int, opts Options) int64 {
	if x < 4 {
		return 0
	}

	svc := primes.NewService()
	ora := oracle.New(svc)

	a := ora.PiSimple(y)
	b := ora.PiSimple(pmath.Isqrt(x))
	if a >= b {
		return 0
	}

	z := x / max64(y, 1)

	sum := combinatorialTerm(a, b)
	sum += runRounds(svc, x, y, z, 2, 0, threads, opts)
	return sum
}
