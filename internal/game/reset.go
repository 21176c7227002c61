package game

import (
	"idlegalaxy/internal/bignum"
)

// FirstReset trades point progress for energy.
type FirstReset struct {
	st *State
}

func (FirstReset) Requirement() bignum.Decimal {
	return e3
}

func (r FirstReset) CanReset() bool {
	return r.st.MaxPoints.Gte(r.Requirement())
}

// GainedEnergy is floor((log10(maxPoints) / 3) ^ 1.5).
func (r FirstReset) GainedEnergy() bignum.Decimal {
	if r.st.MaxPoints.Lt(d1) {
		return d0
	}
	return bignum.New(r.st.MaxPoints.Log10()).Div(d3).PowFloat(1.5).Floor()
}

// EnergyToPoints inverts GainedEnergy: the maxPoints needed for energy.
func (FirstReset) EnergyToPoints(energy bignum.Decimal) bignum.Decimal {
	if energy.Sign() <= 0 {
		return d1
	}
	return bignum.Pow10(energy.Root(1.5).Mul(d3).Float64())
}

// Reset keeps the larger of current and gained energy and rolls points,
// generator, boost and maxPoints back. Does nothing below the requirement.
func (r FirstReset) Reset() {
	if !r.CanReset() {
		return
	}
	st := r.st
	st.Energy = bignum.Max(st.Energy, r.GainedEnergy())
	st.Points = d1
	st.GeneratorLevel = d0
	st.BoostLevel = d0
	st.MaxPoints = d1
}
