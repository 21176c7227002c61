// Package bignum is a mantissa/exponent decimal for numbers that outgrow
// float64 long before they stop mattering: 1 <= |m| < 10, value = m * 10^e.
package bignum

import (
	"math"
)

const (
	// Mantissa digits kept by Add; smaller terms are dropped.
	maxSignificantDigits = 17
	// Exponent magnitude past which a value saturates to infinity (or zero).
	expLimit = 9e15
	// Add scales both mantissas by this before rounding.
	addScale = 1e14
)

type Decimal struct {
	m float64
	e int64
}

var (
	Zero = Decimal{}
	One  = Decimal{m: 1}
)

func New(v float64) Decimal {
	if v == 0 {
		return Zero
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Decimal{m: v}
	}
	return fromParts(v, 0)
}

func FromInt(v int64) Decimal {
	return New(float64(v))
}

// FromParts builds m * 10^e and normalizes the mantissa.
func FromParts(m float64, e int64) Decimal {
	return fromParts(m, e)
}

func fromParts(m float64, e int64) Decimal {
	if m == 0 {
		return Zero
	}
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return Decimal{m: m}
	}
	abs := math.Abs(m)
	shift := int64(math.Floor(math.Log10(abs)))
	if shift >= -300 && shift < 300 {
		// Log10 can be off by one ulp at exact powers of ten.
		if abs >= pow10(shift+1) {
			shift++
		} else if abs < pow10(shift) {
			shift--
		}
	}
	switch {
	case shift > 0:
		m /= pow10(shift)
	case shift < -300:
		m = m * 1e300 * pow10(-shift-300)
	case shift < 0:
		m *= pow10(-shift)
	}
	e += shift
	for math.Abs(m) >= 10 {
		m /= 10
		e++
	}
	for math.Abs(m) < 1 {
		m *= 10
		e--
	}
	if e > expLimit {
		return Decimal{m: math.Copysign(math.Inf(1), m)}
	}
	if e < -expLimit {
		return Zero
	}
	return Decimal{m: m, e: e}
}

func pow10(n int64) float64 {
	return math.Pow10(int(n))
}

// Pow10 returns 10^x.
func Pow10(x float64) Decimal {
	switch {
	case math.IsNaN(x):
		return Decimal{m: math.NaN()}
	case x > expLimit:
		return Decimal{m: math.Inf(1)}
	case x < -expLimit:
		return Zero
	}
	e := math.Floor(x)
	return fromParts(math.Pow(10, x-e), int64(e))
}

func (a Decimal) Mantissa() float64 { return a.m }
func (a Decimal) Exponent() int64   { return a.e }

func (a Decimal) IsZero() bool   { return a.m == 0 }
func (a Decimal) IsNaN() bool    { return math.IsNaN(a.m) }
func (a Decimal) IsFinite() bool { return !math.IsNaN(a.m) && !math.IsInf(a.m, 0) }

func (a Decimal) Sign() int {
	switch {
	case a.m > 0:
		return 1
	case a.m < 0:
		return -1
	default:
		return 0
	}
}

func (a Decimal) Neg() Decimal { return Decimal{m: -a.m, e: a.e} }

func (a Decimal) Abs() Decimal { return Decimal{m: math.Abs(a.m), e: a.e} }

// Float64 converts to float64, overflowing to ±Inf and underflowing to 0.
func (a Decimal) Float64() float64 {
	switch {
	case !a.IsFinite() || a.m == 0:
		return a.m
	case a.e > 308:
		return math.Copysign(math.Inf(1), a.m)
	case a.e < -324:
		return 0
	case a.e < -300:
		return a.m * 1e-300 * pow10(a.e+300)
	case a.e < 0:
		return a.m / pow10(-a.e)
	}
	return a.m * pow10(a.e)
}

func (a Decimal) Add(b Decimal) Decimal {
	if !a.IsFinite() || !b.IsFinite() {
		return New(a.m + b.m)
	}
	if a.m == 0 {
		return b
	}
	if b.m == 0 {
		return a
	}
	if a.e < b.e {
		a, b = b, a
	}
	diff := a.e - b.e
	if diff > maxSignificantDigits {
		return a
	}
	m := math.Round(addScale*a.m + addScale*b.m/pow10(diff))
	return fromParts(m, a.e-14)
}

func (a Decimal) Sub(b Decimal) Decimal {
	return a.Add(b.Neg())
}

func (a Decimal) Mul(b Decimal) Decimal {
	if !a.IsFinite() || !b.IsFinite() {
		return New(a.m * b.m)
	}
	if a.m == 0 || b.m == 0 {
		return Zero
	}
	return fromParts(a.m*b.m, a.e+b.e)
}

func (a Decimal) Div(b Decimal) Decimal {
	if b.m == 0 || !a.IsFinite() || !b.IsFinite() {
		if b.IsFinite() && b.m != 0 {
			return New(a.m / b.m)
		}
		if b.m == 0 {
			return New(a.m / 0)
		}
		if a.IsFinite() {
			return Zero
		}
		return Decimal{m: math.NaN()}
	}
	if a.m == 0 {
		return Zero
	}
	return fromParts(a.m/b.m, a.e-b.e)
}

// Log10 returns log10(a) as a float64: -Inf for zero, NaN for negatives.
func (a Decimal) Log10() float64 {
	switch {
	case math.IsNaN(a.m) || a.m < 0:
		return math.NaN()
	case a.m == 0:
		return math.Inf(-1)
	case math.IsInf(a.m, 1):
		return math.Inf(1)
	}
	return float64(a.e) + math.Log10(a.m)
}

func (a Decimal) Log(base float64) float64 {
	return a.Log10() / math.Log10(base)
}

func (a Decimal) Pow(p Decimal) Decimal {
	return a.PowFloat(p.Float64())
}

func (a Decimal) PowFloat(p float64) Decimal {
	switch {
	case math.IsNaN(p):
		return Decimal{m: math.NaN()}
	case p == 0:
		return One
	case a.m == 0:
		if p > 0 {
			return Zero
		}
		return Decimal{m: math.Inf(1)}
	case !a.IsFinite():
		return New(math.Pow(a.m, p))
	case a.m < 0:
		if p != math.Trunc(p) {
			return Decimal{m: math.NaN()}
		}
		r := a.Abs().PowFloat(p)
		if math.Mod(p, 2) != 0 {
			r = r.Neg()
		}
		return r
	}

	t := float64(a.e) * p
	if math.Abs(t) < expLimit {
		if t == math.Trunc(t) {
			if m := math.Pow(a.m, p); m != 0 && !math.IsInf(m, 0) {
				return fromParts(m, int64(t))
			}
		}
		whole := math.Trunc(t)
		if m := math.Pow(10, p*math.Log10(a.m)+(t-whole)); m != 0 && !math.IsInf(m, 0) {
			return fromParts(m, int64(whole))
		}
	}
	return Pow10(p * a.Log10())
}

func (a Decimal) Sqrt() Decimal {
	switch {
	case a.m < 0 || math.IsNaN(a.m):
		return Decimal{m: math.NaN()}
	case a.m == 0 || math.IsInf(a.m, 1):
		return a
	}
	m, e := a.m, a.e
	if e%2 != 0 {
		m *= 10
		e--
	}
	return fromParts(math.Sqrt(m), e/2)
}

// Root returns the n-th root.
func (a Decimal) Root(n float64) Decimal {
	return a.PowFloat(1 / n)
}

func (a Decimal) Floor() Decimal {
	if !a.IsFinite() || a.e >= maxSignificantDigits {
		return a
	}
	return New(math.Floor(a.Float64()))
}

// Cmp returns -1, 0 or 1. NaN compares equal to everything.
func (a Decimal) Cmp(b Decimal) int {
	if a.IsNaN() || b.IsNaN() {
		return 0
	}
	sa, sb := a.Sign(), b.Sign()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	case sa == 0:
		return 0
	}
	if !a.IsFinite() || !b.IsFinite() || a.e == b.e {
		return cmpFloat(a.m, b.m)
	}
	if a.e > b.e {
		return sa
	}
	return -sa
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func (a Decimal) Eq(b Decimal) bool  { return a.Cmp(b) == 0 }
func (a Decimal) Gt(b Decimal) bool  { return a.Cmp(b) > 0 }
func (a Decimal) Gte(b Decimal) bool { return a.Cmp(b) >= 0 }
func (a Decimal) Lt(b Decimal) bool  { return a.Cmp(b) < 0 }
func (a Decimal) Lte(b Decimal) bool { return a.Cmp(b) <= 0 }

func Max(a, b Decimal) Decimal {
	if a.Gte(b) {
		return a
	}
	return b
}
