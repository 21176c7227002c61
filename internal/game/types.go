package game

import (
	"time"

	"idlegalaxy/internal/bignum"
)

// View is the read model handed to display collaborators. It carries raw
// decimals only; formatting is the caller's job.
type View struct {
	At                time.Time       `json:"at"`
	Points            bignum.Decimal  `json:"points"`
	MaxPoints         bignum.Decimal  `json:"max_points"`
	Energy            bignum.Decimal  `json:"energy"`
	EnergyVisible     bool            `json:"energy_visible"`
	Generator         UpgradeView     `json:"generator"`
	Boost             UpgradeView     `json:"boost"`
	FirstReset        ResetView       `json:"first_reset"`
	MilestonesVisible bool            `json:"milestones_visible"`
	Milestones        []MilestoneView `json:"milestones"`
	Galaxy            GalaxyView      `json:"galaxy"`
}

type UpgradeView struct {
	Level      bignum.Decimal `json:"level"`
	Effect     bignum.Decimal `json:"effect"`
	Cost       bignum.Decimal `json:"cost"`
	Unlocked   bool           `json:"unlocked"`
	Affordable bool           `json:"affordable"`
	Visible    bool           `json:"visible"`
}

type ResetView struct {
	CanReset    bool           `json:"can_reset"`
	Requirement bignum.Decimal `json:"requirement"`
	// EnergyGain is what a reset adds on top of current energy (may be <= 0).
	EnergyGain   bignum.Decimal `json:"energy_gain"`
	NextEnergyAt bignum.Decimal `json:"next_energy_at"`
}

type MilestoneView struct {
	ID          string         `json:"id"`
	Requirement bignum.Decimal `json:"requirement"`
	Applied     bool           `json:"applied"`
	Effect      bignum.Decimal `json:"effect"`
}

type GalaxyView struct {
	Unlocked   bool           `json:"unlocked"`
	Amount     bignum.Decimal `json:"amount"`
	Effect     bignum.Decimal `json:"effect"`
	Cost       bignum.Decimal `json:"cost"`
	Affordable bool           `json:"affordable"`
	AutoReset  bool           `json:"auto_reset"`
}

func BuildView(st *State) View {
	reset := st.FirstReset()
	firstReseted := st.Energy.Gt(d0)

	gen := st.Generator()
	boost := st.Boost()
	galaxy := st.Galaxy()

	v := View{
		At:            st.LastUpdate,
		Points:        st.Points,
		MaxPoints:     st.MaxPoints,
		Energy:        st.Energy,
		EnergyVisible: firstReseted,
		Generator: UpgradeView{
			Level:      gen.Level(),
			Effect:     gen.Effect(),
			Cost:       gen.Cost(),
			Unlocked:   gen.IsUnlocked(),
			Affordable: gen.IsAffordable(),
			Visible:    gen.IsUnlocked(),
		},
		Boost: UpgradeView{
			Level:      boost.Level(),
			Effect:     boost.Effect(),
			Cost:       boost.Cost(),
			Unlocked:   boost.IsUnlocked(),
			Affordable: boost.IsAffordable(),
			Visible:    boost.IsUnlocked() || firstReseted,
		},
		FirstReset: ResetView{
			CanReset:     reset.CanReset(),
			Requirement:  reset.Requirement(),
			EnergyGain:   reset.GainedEnergy().Sub(st.Energy),
			NextEnergyAt: reset.EnergyToPoints(st.Energy.Add(d1)),
		},
		MilestonesVisible: firstReseted,
		Galaxy: GalaxyView{
			Unlocked:   galaxy.IsUnlocked(),
			Amount:     st.Galaxies,
			Effect:     galaxy.Effect(),
			Cost:       galaxy.Cost(),
			Affordable: galaxy.IsAffordable(),
			AutoReset:  reset.CanReset(),
		},
	}
	for _, id := range Milestones() {
		m := st.Milestone(id)
		v.Milestones = append(v.Milestones, MilestoneView{
			ID:          id.String(),
			Requirement: m.Requirement(),
			Applied:     m.CanBeApplied(),
			Effect:      m.Effect(),
		})
	}
	return v
}
