package game

import (
	"idlegalaxy/internal/bignum"
)

// Effect is anything that contributes a multiplier once its gate opens.
type Effect interface {
	Effect() bignum.Decimal
	CanBeApplied() bool
}

// Purchasable is an Effect bought with a resource.
type Purchasable interface {
	Effect
	Cost() bignum.Decimal
	IsUnlocked() bool
	IsAffordable() bool
	Purchase()
}

var (
	_ Purchasable = Generator{}
	_ Purchasable = Boost{}
	_ Purchasable = Galaxy{}
	_ Effect      = Milestone{}
)

// pointUpgrade is a rebuyable paid in points: cost = baseCost * costMult^level.
type pointUpgrade struct {
	st       *State
	level    *bignum.Decimal
	baseCost bignum.Decimal
	costMult bignum.Decimal
}

func (u pointUpgrade) Level() bignum.Decimal {
	return *u.level
}

func (u pointUpgrade) CanBeApplied() bool {
	return u.level.Gt(d0)
}

func (u pointUpgrade) Cost() bignum.Decimal {
	return u.baseCost.Mul(u.costMult.Pow(*u.level))
}

func (u pointUpgrade) affordable(unlocked bool) bool {
	return unlocked && u.st.Points.Gte(u.Cost())
}

func (u pointUpgrade) purchase(unlocked bool) {
	if !u.affordable(unlocked) {
		return
	}
	u.st.Points = u.st.Points.Sub(u.Cost())
	*u.level = u.level.Add(d1)
}

type Generator struct {
	pointUpgrade
}

func (Generator) IsUnlocked() bool { return true }

func (g Generator) IsAffordable() bool { return g.affordable(g.IsUnlocked()) }

func (g Generator) Purchase() { g.purchase(g.IsUnlocked()) }

// Effect is points produced per second.
func (g Generator) Effect() bignum.Decimal {
	mult := g.Level().PowFloat(2)
	if b := g.st.Boost(); b.CanBeApplied() {
		mult = mult.Mul(b.Effect())
	}
	if m := g.st.Milestone(MultPerPoint); m.CanBeApplied() {
		mult = mult.Mul(m.Effect())
	}
	if m := g.st.Milestone(EnergyBoost); m.CanBeApplied() {
		mult = mult.Mul(m.Effect())
	}
	return mult
}

type Boost struct {
	pointUpgrade
}

// UnlockLevel is the generator level that unlocks boosts.
func (Boost) UnlockLevel() bignum.Decimal {
	return d3
}

func (b Boost) IsUnlocked() bool {
	return b.st.GeneratorLevel.Gte(b.UnlockLevel())
}

func (b Boost) IsAffordable() bool { return b.affordable(b.IsUnlocked()) }

func (b Boost) Purchase() { b.purchase(b.IsUnlocked()) }

func (b Boost) Effect() bignum.Decimal {
	mult := b.Level().Add(d1)
	if m := b.st.Milestone(BoostAddSelf); m.CanBeApplied() {
		mult = mult.Mul(m.Effect())
	}
	if g := b.st.Galaxy(); g.IsUnlocked() {
		mult = mult.Mul(g.Effect())
	}
	return mult
}
