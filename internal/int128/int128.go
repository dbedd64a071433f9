// Package int128 implements the signed 128-bit accumulator spec.md's
// "wide path" needs for P2(x, y) when x itself no longer fits in 64 bits.
//
// No third-party signed-128-bit integer library appears anywhere in the
// retrieved reference corpus; the two places the corpus hand-rolls
// wide-integer math (codewanderer42820-evm_triarb/fastuni and the pthash
// fastmod helper) both build it directly on math/bits rather than
// importing one, which is the precedent this package follows.
package int128

import (
	"fmt"
	"math"
	"math/bits"
)

// Int128 is a signed 128-bit integer stored as a high/low word pair in
// two's complement form, mirroring how the original primecount source
// represents its own wide integer type. Every operation in this package
// is total only for the non-negative magnitudes P2 ever produces (x >= 0
// and all derived quantities); see the per-method notes.
type Int128 struct {
	hi int64
	lo uint64
}

// FromParts reconstructs an Int128 from its high/low words, the wire
// format cluster.ParcsGroup uses to carry a wide accumulator across a
// shard dispatch (the unexported hi/lo fields above aren't visible to a
// generic struct codec).
func FromParts(hi int64, lo uint64) Int128 {
	return Int128{hi: hi, lo: lo}
}

// Parts returns a's high/low words, the inverse of FromParts.
func (a Int128) Parts() (hi int64, lo uint64) {
	return a.hi, a.lo
}

// FromInt64 widens v into an Int128.
func FromInt64(v int64) Int128 {
	if v < 0 {
		return Int128{hi: -1, lo: uint64(v)}
	}
	return Int128{hi: 0, lo: uint64(v)}
}

// IsNeg reports whether a is negative.
func (a Int128) IsNeg() bool { return a.hi < 0 }

// Neg returns -a.
func (a Int128) Neg() Int128 {
	lo, borrow := bits.Sub64(0, a.lo, 0)
	hi := ^a.hi + 1 - int64(borrow)
	return Int128{hi: hi, lo: lo}
}

// Abs returns the absolute value of a.
func (a Int128) Abs() Int128 {
	if a.IsNeg() {
		return a.Neg()
	}
	return a
}

// Add returns a + b.
func (a Int128) Add(b Int128) Int128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi := a.hi + b.hi + int64(carry)
	return Int128{hi: hi, lo: lo}
}

// Sub returns a - b.
func (a Int128) Sub(b Int128) Int128 {
	return a.Add(b.Neg())
}

// Mul returns a * b, truncated to the low 128 bits of the mathematical
// product (exact whenever that product itself fits in 128 bits, which is
// the only case P2 ever exercises: squaring an isqrt candidate bounded by
// x, or multiplying two window-scale primes).
func (a Int128) Mul(b Int128) Int128 {
	hi, lo := bits.Mul64(a.lo, b.lo)
	hi += uint64(a.hi)*b.lo + a.lo*uint64(b.hi)
	return Int128{hi: int64(hi), lo: lo}
}

// MulInt64 returns a * b for an int64 scalar b, exact whenever the
// mathematical product fits in 128 bits. This is P2's one place that
// multiplies a wide accumulator by a narrow, int64-typed count (the
// pix_low * count term in the stitch), so it is kept as its own entry
// point rather than always widening b to an Int128 first.
func (a Int128) MulInt64(b int64) Int128 {
	neg := a.IsNeg() != (b < 0)
	ua := a.Abs()
	ub := uint64(b)
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo := bits.Mul64(ua.lo, ub)
	hi += uint64(ua.hi) * ub
	res := Int128{hi: int64(hi), lo: lo}
	if neg {
		res = res.Neg()
	}
	return res
}

// DivInt64 returns a / d truncated toward zero (floor for a >= 0) as a
// full-width Int128, for d > 0. Unlike
// QuoInt64 this does not narrow the result, which matters for the
// combinatorial seed term C(a,b): that term's magnitude tracks x's own
// width, not the small pi-counts a and b that feed it.
func (a Int128) DivInt64(d int64) Int128 {
	if d <= 0 {
		panic("int128: DivInt64 requires d > 0")
	}
	if a.IsNeg() {
		return a.Neg().DivInt64(d).Neg()
	}
	ud := uint64(d)
	qHi, rHi := bits.Div64(0, uint64(a.hi), ud)
	qLo, _ := bits.Div64(rHi, a.lo, ud)
	return Int128{hi: int64(qHi), lo: qLo}
}

// QuoInt64 returns a / d truncated toward zero (floor for a >= 0),
// narrowed to int64, for d > 0. Every P2
// call site bounds the quotient by z (spec.md's int64-width outer sweep
// bound) before using the result, per the design note that x/p is
// computed at 128 bits but always fits in 64 once bounded by z; the
// narrowing here is exact under that invariant, not a truncation.
func (a Int128) QuoInt64(d int64) int64 {
	if d <= 0 {
		panic("int128: QuoInt64 requires d > 0")
	}
	if a.IsNeg() {
		return -a.Neg().QuoInt64(d)
	}
	q, _ := bits.Div64(uint64(a.hi), a.lo, uint64(d))
	return int64(q)
}

// Cmp returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func (a Int128) Cmp(b Int128) int {
	d := a.Sub(b)
	switch {
	case d.hi == 0 && d.lo == 0:
		return 0
	case d.IsNeg():
		return -1
	default:
		return 1
	}
}

func (a Int128) Less(b Int128) bool    { return a.Cmp(b) < 0 }
func (a Int128) LessEq(b Int128) bool  { return a.Cmp(b) <= 0 }
func (a Int128) Greater(b Int128) bool { return a.Cmp(b) > 0 }
func (a Int128) Equal(b Int128) bool   { return a.Cmp(b) == 0 }

// Float64 approximates a as a float64, used only to seed Isqrt.
func (a Int128) Float64() float64 {
	if a.IsNeg() {
		return -a.Neg().Float64()
	}
	return float64(uint64(a.hi))*18446744073709551616.0 + float64(a.lo)
}

// Isqrt returns floor(sqrt(x)), narrowed to int64 (always exact for P2's
// use: spec.md bounds isqrt(x) by z, an int64-width quantity, even when x
// itself is 128-bit). Seeded from a float64 approximation and corrected
// by direct Int128 comparison, the same two-step shape pmath.Isqrt uses
// for the 64-bit case.
func Isqrt(x Int128) int64 {
	if x.IsNeg() {
		panic("int128: Isqrt requires x >= 0")
	}
	r := int64(math.Sqrt(x.Float64()))
	if r < 0 {
		r = math.MaxInt64
	}
	for FromInt64(r).Mul(FromInt64(r)).Greater(x) {
		r--
	}
	for x.Sub(FromInt64(r).Mul(FromInt64(r))).Cmp(FromInt64(2*r)) > 0 {
		r++
	}
	return r
}

// String renders a in decimal, used by logging and test failure messages
// only; it is not on any hot path.
func (a Int128) String() string {
	if a.hi == 0 {
		return fmt.Sprintf("%d", a.lo)
	}
	if a.IsNeg() {
		return "-" + a.Neg().String()
	}
	// Repeated division by 10^18 (the largest power of ten whose value
	// still fits the int64 parameter DivInt64/MulInt64 take) peels off
	// decimal chunks from the low end.
	const chunk = 1_000_000_000_000_000_000 // 10^18
	q := a.DivInt64(chunk)
	r := a.Sub(q.MulInt64(chunk)).lo
	return fmt.Sprintf("%s%018d", q.String(), r)
}
