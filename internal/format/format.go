// Package format renders game decimals for people: plain numbers below
// 1000, scientific notation above.
package format

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"idlegalaxy/internal/bignum"
)

const (
	scientificFrom = 1000
	// Exponents at or past this are themselves written in scientific form.
	exponentLimit  = 1e9
	exponentPlaces = 3
	intLimit       = 1e9
)

var thousand = bignum.New(scientificFrom)

// Format writes v with places digits after the mantissa point, or
// placesUnder1000 digits when |v| < 1000.
func Format(v bignum.Decimal, places, placesUnder1000 int) string {
	switch {
	case v.IsNaN():
		return "NaN"
	case !v.IsFinite():
		if v.Sign() < 0 {
			return "-Infinite"
		}
		return "Infinite"
	case v.Sign() < 0:
		return "-" + Format(v.Neg(), places, placesUnder1000)
	case v.Lt(thousand):
		return decimal.NewFromFloat(v.Float64()).StringFixed(int32(placesUnder1000))
	}

	mant := decimal.NewFromFloat(v.Mantissa()).Round(int32(places))
	exp := v.Exponent()
	if mant.GreaterThanOrEqual(decimal.NewFromInt(10)) {
		mant = mant.Shift(-1).Round(int32(places))
		exp++
	}
	return mant.StringFixed(int32(places)) + "e" + formatExponent(exp)
}

func formatExponent(e int64) string {
	if math.Abs(float64(e)) < exponentLimit {
		return humanize.Comma(e)
	}
	return Format(bignum.FromInt(e), exponentPlaces, 0)
}

// FormatInt groups thousands with commas up to 1e9 and falls back to
// Format beyond that.
func FormatInt(v bignum.Decimal) string {
	if v.IsFinite() && v.Abs().Lte(bignum.New(intLimit)) {
		return humanize.Comma(int64(math.Round(v.Float64())))
	}
	return Format(v, 0, 0)
}

// FormatX is a multiplier: ×value.
func FormatX(v bignum.Decimal, places, placesUnder1000 int) string {
	return "×" + Format(v, places, placesUnder1000)
}

// FormatPow is an exponent bonus: ^value.
func FormatPow(v bignum.Decimal, places, placesUnder1000 int) string {
	return "^" + Format(v, places, placesUnder1000)
}
