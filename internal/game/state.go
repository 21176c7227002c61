package game

import (
	"time"

	"idlegalaxy/internal/bignum"
)

const DefaultUpdateRate = 33 * time.Millisecond

// State is the whole progression snapshot. Every quantity stays >= 0,
// MaxPoints >= Points between ticks, Energy only drops when spent on
// galaxies and Galaxies never drops.
type State struct {
	Points         bignum.Decimal
	GeneratorLevel bignum.Decimal
	BoostLevel     bignum.Decimal
	Energy         bignum.Decimal
	Galaxies       bignum.Decimal
	MaxPoints      bignum.Decimal
	LastUpdate     time.Time
	UpdateRate     time.Duration
}

func NewState(now time.Time) *State {
	return &State{
		Points:         d1,
		GeneratorLevel: d0,
		BoostLevel:     d0,
		Energy:         d0,
		Galaxies:       d0,
		MaxPoints:      d1,
		LastUpdate:     now,
		UpdateRate:     DefaultUpdateRate,
	}
}

func (st *State) Generator() Generator {
	return Generator{pointUpgrade{st: st, level: &st.GeneratorLevel, baseCost: d1, costMult: d5}}
}

func (st *State) Boost() Boost {
	return Boost{pointUpgrade{st: st, level: &st.BoostLevel, baseCost: e2, costMult: e1}}
}

func (st *State) Milestone(id MilestoneID) Milestone {
	return Milestone{st: st, ID: id}
}

func (st *State) FirstReset() FirstReset {
	return FirstReset{st: st}
}

func (st *State) Galaxy() Galaxy {
	return Galaxy{st: st}
}
