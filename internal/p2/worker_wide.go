package p2

import (
	"github.com/spsforks/kimwalisch-primecount/internal/int128"
	"github.com/spsforks/kimwalisch-primecount/internal/primes"
)

// slotWide is slot's 128-bit-accumulator counterpart, padded to its own
// cache line the same way.
type slotWide struct {
	partialSum int128.Int128
	pix        int64
	pixCount   int64
	_          [cacheLineSize - 32]byte
}

// WorkerInputWide is WorkerInput's wide-x counterpart. y, z, low and the
// per-round window bounds stay int64 per spec.md's data model -- only x
// and the accumulator widen past 64 bits.
type WorkerInputWide struct {
	X              int128.Int128
	Y              int64
	Z              int64
	Low            int64
	ThreadNum      int64
	ThreadDistance int64
}

// WorkerResultWide is WorkerResult's wide counterpart.
type WorkerResultWide struct {
	PartialSum int128.Int128
	Pix        int64
	PixCount   int64
}

// WorkerWide is Worker generalized to a 128-bit x. Every bound derived
// from dividing x (start, stop, xp) still fits in int64 once clamped
// against y/z/isqrt(x), the same invariant the narrow Worker relies on;
// only the accumulated sum itself needs the wider type.
func WorkerWide(svc *primes.Service, in WorkerInputWide) WorkerResultWide {
	myLow := in.Low + in.ThreadDistance*in.ThreadNum
	myHigh := min64(myLow+in.ThreadDistance, in.Z)

	start := max64(in.X.QuoInt64(myHigh), in.Y)
	stop := min64(in.X.QuoInt64(myLow), int128.Isqrt(in.X))

	rc := svc.Reverse(stop, start)
	fc := svc.Forward(myLow, myHigh)

	next := fc.Next()
	prime := rc.Prev()

	var pix, pixCount int64
	sum := int128.FromInt64(0)
	for prime > start {
		xp := in.X.QuoInt64(prime)
		if xp >= myHigh {
			break
		}
		pix += countPrimes(fc, &next, xp)
		pixCount++
		sum = sum.Add(int128.FromInt64(pix))
		prime = rc.Prev()
	}

	pix += countPrimes(fc, &next, myHigh-1)

	return WorkerResultWide{PartialSum: sum, Pix: pix, PixCount: pixCount}
}
