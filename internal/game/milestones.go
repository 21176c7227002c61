package game

import (
	"math"

	"idlegalaxy/internal/bignum"
)

type MilestoneID int

const (
	MultPerPoint MilestoneID = iota
	BoostAddSelf
	EnergyBoost
	UnlockGalaxy
)

func Milestones() []MilestoneID {
	return []MilestoneID{MultPerPoint, BoostAddSelf, EnergyBoost, UnlockGalaxy}
}

func (id MilestoneID) String() string {
	switch id {
	case MultPerPoint:
		return "mult_per_point"
	case BoostAddSelf:
		return "boost_add_self"
	case EnergyBoost:
		return "energy_boost"
	case UnlockGalaxy:
		return "unlock_galaxy"
	default:
		return "unknown"
	}
}

// Milestone is a passive bonus that applies while energy >= Requirement.
type Milestone struct {
	st *State
	ID MilestoneID
}

func (m Milestone) Requirement() bignum.Decimal {
	switch m.ID {
	case MultPerPoint:
		return d1
	case BoostAddSelf:
		return d2
	case EnergyBoost:
		return d3
	case UnlockGalaxy:
		return bignum.New(6)
	default:
		return bignum.New(math.Inf(1))
	}
}

func (m Milestone) CanBeApplied() bool {
	return m.st.Energy.Gte(m.Requirement())
}

// Effect is the multiplier granted. UnlockGalaxy only gates and reports 1.
func (m Milestone) Effect() bignum.Decimal {
	switch m.ID {
	case MultPerPoint:
		// x2 for every x20 points.
		steps := math.Floor(m.st.Points.Add(d1).Log(20))
		return d2.PowFloat(steps)
	case BoostAddSelf:
		return m.st.BoostLevel.PowFloat(2).Div(d2).Add(d1)
	case EnergyBoost:
		return d5.Pow(m.st.Energy.Sqrt())
	default:
		return d1
	}
}
