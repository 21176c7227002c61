package bignum

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("invalid decimal")

// String renders plain notation for exponents in (-7, 21) when that form
// parses back to the same mantissa and exponent, and m"e"±x otherwise.
// Saves are written with it, so it must never lose a digit.
func (a Decimal) String() string {
	switch {
	case math.IsNaN(a.m):
		return "NaN"
	case math.IsInf(a.m, 1):
		return "Infinity"
	case math.IsInf(a.m, -1):
		return "-Infinity"
	case a.m == 0:
		return "0"
	case a.e > -7 && a.e < 21:
		plain := strconv.FormatFloat(a.Float64(), 'f', -1, 64)
		if back, err := Parse(plain); err == nil && back == a {
			return plain
		}
	}
	sign := "+"
	if a.e < 0 {
		sign = ""
	}
	return strconv.FormatFloat(a.m, 'f', -1, 64) + "e" + sign + strconv.FormatInt(a.e, 10)
}

func Parse(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return Zero, fmt.Errorf("%w: empty", ErrSyntax)
	case "NaN":
		return Decimal{m: math.NaN()}, nil
	case "Infinity", "+Infinity":
		return Decimal{m: math.Inf(1)}, nil
	case "-Infinity":
		return Decimal{m: math.Inf(-1)}, nil
	}

	i := strings.IndexAny(s, "eE")
	if i < 0 {
		m, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		return New(m), nil
	}
	m, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	exp := s[i+1:]
	e, err := strconv.ParseInt(strings.TrimPrefix(exp, "+"), 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return fromParts(m, e), nil
}

func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (a Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both the string form and bare JSON numbers.
func (a *Decimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	d, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = d
	return nil
}
