package game

import (
	"math"

	"idlegalaxy/internal/bignum"
)

// Galaxy is the second prestige layer, paid in energy.
type Galaxy struct {
	st *State
}

// IsUnlocked sticks once the first galaxy is owned.
func (g Galaxy) IsUnlocked() bool {
	return g.st.Milestone(UnlockGalaxy).CanBeApplied() || g.st.Galaxies.Gt(d0)
}

// BulkThreshold is the energy above which Max jumps straight to the
// closed-form count instead of buying one galaxy at a time.
func (Galaxy) BulkThreshold() bignum.Decimal {
	return e3
}

func (g Galaxy) CanBeApplied() bool {
	return g.IsUnlocked()
}

// Effect is 2^(10^galaxies - 1), applied to the boost multiplier.
func (g Galaxy) Effect() bignum.Decimal {
	return d2.Pow(e1.Pow(g.st.Galaxies).Sub(d1))
}

func (g Galaxy) Cost() bignum.Decimal {
	return d2.Mul(d3.Pow(g.st.Galaxies))
}

func (g Galaxy) IsAffordable() bool {
	return g.st.Energy.Gte(g.Cost())
}

// Purchase runs a first reset (which may itself do nothing), then pays.
func (g Galaxy) Purchase() {
	if !g.IsAffordable() {
		return
	}
	g.st.FirstReset().Reset()
	g.st.Energy = g.st.Energy.Sub(g.Cost())
	g.st.Galaxies = g.st.Galaxies.Add(d1)
}

// Max buys as many galaxies as energy allows. Below BulkThreshold it
// loops Purchase; above it sets the count from floor(log3(energy/2)) + 1
// without spending energy.
func (g Galaxy) Max() {
	if !g.IsAffordable() {
		return
	}
	g.st.FirstReset().Reset()
	if g.st.Energy.Lt(g.BulkThreshold()) {
		for g.IsAffordable() {
			g.Purchase()
		}
		return
	}
	bought := bignum.New(math.Floor(g.st.Energy.Div(d2).Log(3))).Add(d1)
	if bought.Lte(g.st.Galaxies) {
		return
	}
	g.st.Galaxies = bought
}
