package game

import (
	"time"

	"idlegalaxy/internal/bignum"
)

// Tick credits production for the time since LastUpdate. LastUpdate is
// advanced by the whole-millisecond delta so sub-millisecond remainders
// carry into the next tick. A clock that moved backwards produces nothing.
func (st *State) Tick(now time.Time) {
	diff := now.Sub(st.LastUpdate).Milliseconds()
	st.LastUpdate = st.LastUpdate.Add(time.Duration(diff) * time.Millisecond)
	if diff <= 0 {
		return
	}

	elapsed := float64(diff) * GameSpeed
	gen := st.Generator()
	if !gen.CanBeApplied() {
		return
	}
	st.Points = st.Points.Add(gen.Effect().Mul(bignum.New(elapsed / 1000)))
	st.MaxPoints = bignum.Max(st.MaxPoints, st.Points)
}
