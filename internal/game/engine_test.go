package game

import (
	"testing"
	"time"

	"idlegalaxy/internal/bignum"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(v float64) bignum.Decimal { return bignum.New(v) }

func assertDec(t *testing.T, name string, got bignum.Decimal, want float64) {
	t.Helper()
	if !got.Eq(dec(want)) {
		t.Fatalf("%s: got %s want %v", name, got, want)
	}
}

func TestNewStateDefaults(t *testing.T) {
	st := NewState(t0)
	assertDec(t, "points", st.Points, 1)
	assertDec(t, "generator", st.GeneratorLevel, 0)
	assertDec(t, "boost", st.BoostLevel, 0)
	assertDec(t, "energy", st.Energy, 0)
	assertDec(t, "galaxies", st.Galaxies, 0)
	assertDec(t, "maxPoints", st.MaxPoints, 1)
	if st.UpdateRate != DefaultUpdateRate {
		t.Fatalf("update rate got %v want %v", st.UpdateRate, DefaultUpdateRate)
	}
}

func TestScenarioFirstGeneratorAndTick(t *testing.T) {
	st := NewState(t0)
	st.Generator().Purchase()
	assertDec(t, "points", st.Points, 0)
	assertDec(t, "generator", st.GeneratorLevel, 1)

	st.Tick(t0.Add(time.Second))
	assertDec(t, "points", st.Points, 1)
	assertDec(t, "maxPoints", st.MaxPoints, 1)
}

func TestGeneratorPurchaseAtCost(t *testing.T) {
	st := NewState(t0)
	st.GeneratorLevel = dec(1)

	st.Points = dec(4.999)
	st.Generator().Purchase()
	assertDec(t, "level after cost-eps", st.GeneratorLevel, 1)
	assertDec(t, "points after cost-eps", st.Points, 4.999)

	st.Points = dec(5)
	st.Generator().Purchase()
	assertDec(t, "level", st.GeneratorLevel, 2)
	assertDec(t, "points", st.Points, 0)

	st.Generator().Purchase()
	assertDec(t, "level after broke", st.GeneratorLevel, 2)
}

func TestUpgradeCosts(t *testing.T) {
	tests := []struct {
		level   float64
		genCost float64
		bstCost float64
	}{
		{level: 0, genCost: 1, bstCost: 100},
		{level: 1, genCost: 5, bstCost: 1000},
		{level: 3, genCost: 125, bstCost: 100000},
	}
	for _, tc := range tests {
		st := NewState(t0)
		st.GeneratorLevel = dec(tc.level)
		st.BoostLevel = dec(tc.level)
		assertDec(t, "generator cost", st.Generator().Cost(), tc.genCost)
		assertDec(t, "boost cost", st.Boost().Cost(), tc.bstCost)
	}
}

func TestBalanceGates(t *testing.T) {
	st := NewState(t0)
	assertDec(t, "boost unlock level", st.Boost().UnlockLevel(), 3)
	assertDec(t, "galaxy bulk threshold", st.Galaxy().BulkThreshold(), 1000)
}

func TestBoostUnlock(t *testing.T) {
	st := NewState(t0)
	st.Points = dec(1e6)
	st.GeneratorLevel = dec(2)
	st.Boost().Purchase()
	assertDec(t, "boost while locked", st.BoostLevel, 0)

	st.GeneratorLevel = dec(3)
	if !st.Boost().IsUnlocked() {
		t.Fatalf("boost should unlock at generator level 3")
	}
	st.Boost().Purchase()
	assertDec(t, "boost", st.BoostLevel, 1)
	assertDec(t, "points", st.Points, 1e6-100)
}

func TestGeneratorEffectChain(t *testing.T) {
	tests := []struct {
		name   string
		gen    float64
		boost  float64
		energy float64
		want   float64
	}{
		{name: "idle", gen: 0, want: 0},
		{name: "bare", gen: 3, want: 9},
		{name: "boosted", gen: 2, boost: 1, want: 8},
		// boostAddSelf 1.5, multPerPoint 1 at points=1
		{name: "milestones", gen: 2, boost: 1, energy: 2, want: 12},
		// boost level 0 is inactive; energyBoost 5^sqrt(4) = 25
		{name: "energy boost", gen: 1, energy: 4, want: 25},
	}
	for _, tc := range tests {
		st := NewState(t0)
		st.GeneratorLevel = dec(tc.gen)
		st.BoostLevel = dec(tc.boost)
		st.Energy = dec(tc.energy)
		assertDec(t, tc.name, st.Generator().Effect(), tc.want)
	}
}

func TestMilestones(t *testing.T) {
	st := NewState(t0)
	for _, id := range Milestones() {
		if st.Milestone(id).CanBeApplied() {
			t.Fatalf("%s applied at zero energy", id)
		}
	}

	st.Energy = dec(6)
	st.Points = dec(1000)
	st.BoostLevel = dec(4)
	for _, id := range Milestones() {
		if !st.Milestone(id).CanBeApplied() {
			t.Fatalf("%s not applied at energy 6", id)
		}
	}
	// floor(log20(1001)) = 2
	assertDec(t, "multPerPoint", st.Milestone(MultPerPoint).Effect(), 4)
	assertDec(t, "boostAddSelf", st.Milestone(BoostAddSelf).Effect(), 9)
	assertDec(t, "unlockGalaxy", st.Milestone(UnlockGalaxy).Effect(), 1)

	st.Energy = dec(4)
	assertDec(t, "energyBoost", st.Milestone(EnergyBoost).Effect(), 25)
	if st.Milestone(UnlockGalaxy).CanBeApplied() {
		t.Fatalf("unlockGalaxy applied below requirement")
	}
}

func TestTickKeepsMaxPoints(t *testing.T) {
	st := NewState(t0)
	st.GeneratorLevel = dec(4)
	st.Points = dec(10)
	now := t0
	for i := 0; i < 50; i++ {
		now = now.Add(33 * time.Millisecond)
		st.Tick(now)
		if st.MaxPoints.Lt(st.Points) {
			t.Fatalf("tick %d: maxPoints %s < points %s", i, st.MaxPoints, st.Points)
		}
	}
	if !st.LastUpdate.Equal(now) {
		t.Fatalf("lastUpdate got %v want %v", st.LastUpdate, now)
	}
}

func TestTickCarriesSubMillisecond(t *testing.T) {
	st := NewState(t0)
	st.Tick(t0.Add(1500*time.Millisecond + 600*time.Microsecond))
	if got, want := st.LastUpdate, t0.Add(1500*time.Millisecond); !got.Equal(want) {
		t.Fatalf("lastUpdate got %v want %v", got, want)
	}
}

func TestTickBackwardsClock(t *testing.T) {
	st := NewState(t0)
	st.GeneratorLevel = dec(1)
	st.Points = dec(3)
	st.Tick(t0.Add(-time.Minute))
	assertDec(t, "points", st.Points, 3)
	if !st.LastUpdate.Equal(t0.Add(-time.Minute)) {
		t.Fatalf("lastUpdate should follow the clock, got %v", st.LastUpdate)
	}
}

func TestTickWithoutGenerator(t *testing.T) {
	st := NewState(t0)
	st.Tick(t0.Add(time.Hour))
	assertDec(t, "points", st.Points, 1)
}

func TestScenarioFirstReset(t *testing.T) {
	st := NewState(t0)
	st.MaxPoints = dec(1000)
	st.Points = dec(700)
	st.GeneratorLevel = dec(5)
	st.BoostLevel = dec(2)

	r := st.FirstReset()
	if !r.CanReset() {
		t.Fatalf("expected canReset at maxPoints 1000")
	}
	assertDec(t, "gained", r.GainedEnergy(), 1)
	r.Reset()
	assertDec(t, "energy", st.Energy, 1)
	assertDec(t, "points", st.Points, 1)
	assertDec(t, "generator", st.GeneratorLevel, 0)
	assertDec(t, "boost", st.BoostLevel, 0)
	assertDec(t, "maxPoints", st.MaxPoints, 1)
}

func TestFirstResetGate(t *testing.T) {
	st := NewState(t0)
	st.MaxPoints = dec(999)
	st.Points = dec(999)
	st.GeneratorLevel = dec(4)
	st.FirstReset().Reset()
	assertDec(t, "points", st.Points, 999)
	assertDec(t, "generator", st.GeneratorLevel, 4)
	assertDec(t, "energy", st.Energy, 0)
}

func TestFirstResetIdempotent(t *testing.T) {
	st := NewState(t0)
	st.MaxPoints = dec(1e6)
	st.FirstReset().Reset()
	// floor(2^1.5) = 2
	assertDec(t, "first", st.Energy, 2)
	st.FirstReset().Reset()
	assertDec(t, "second", st.Energy, 2)
}

func TestFirstResetNeverRegressesEnergy(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(5)
	st.MaxPoints = dec(1000)
	st.FirstReset().Reset()
	assertDec(t, "energy", st.Energy, 5)
	assertDec(t, "maxPoints", st.MaxPoints, 1)
}

func TestEnergyToPoints(t *testing.T) {
	r := NewState(t0).FirstReset()
	assertDec(t, "zero", r.EnergyToPoints(dec(0)), 1)
	got := r.EnergyToPoints(dec(1))
	if got.Lt(dec(999.999)) || got.Gt(dec(1000.001)) {
		t.Fatalf("energyToPoints(1) got %s want 1000", got)
	}
	got = r.EnergyToPoints(dec(8))
	if got.Lt(dec(0.999e12)) || got.Gt(dec(1.001e12)) {
		t.Fatalf("energyToPoints(8) got %s want 1e12", got)
	}
}

func TestGalaxyUnlock(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(5)
	if st.Galaxy().IsUnlocked() {
		t.Fatalf("galaxy unlocked at energy 5")
	}
	st.Energy = dec(6)
	if !st.Galaxy().IsUnlocked() {
		t.Fatalf("galaxy locked at energy 6")
	}
	st.Energy = dec(0)
	st.Galaxies = dec(1)
	if !st.Galaxy().IsUnlocked() {
		t.Fatalf("galaxy unlock should stick once one is owned")
	}
}

func TestGalaxyEffectAndCost(t *testing.T) {
	st := NewState(t0)
	assertDec(t, "effect 0", st.Galaxy().Effect(), 1)
	assertDec(t, "cost 0", st.Galaxy().Cost(), 2)
	st.Galaxies = dec(1)
	assertDec(t, "effect 1", st.Galaxy().Effect(), 512)
	assertDec(t, "cost 1", st.Galaxy().Cost(), 6)
	st.Galaxies = dec(2)
	assertDec(t, "cost 2", st.Galaxy().Cost(), 18)
}

func TestScenarioGalaxyPurchase(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(2)
	if !st.Galaxy().IsAffordable() {
		t.Fatalf("expected galaxy affordable at energy 2")
	}
	st.Galaxy().Purchase()
	assertDec(t, "energy", st.Energy, 0)
	assertDec(t, "galaxies", st.Galaxies, 1)

	st.Galaxy().Purchase()
	assertDec(t, "galaxies after broke", st.Galaxies, 1)
}

func TestGalaxyPurchaseRunsReset(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(2)
	st.MaxPoints = dec(1e6)
	st.Points = dec(1e6)
	st.Galaxy().Purchase()
	// reset lifts energy to 2 first, then the galaxy costs 2.
	assertDec(t, "energy", st.Energy, 0)
	assertDec(t, "points", st.Points, 1)
	assertDec(t, "galaxies", st.Galaxies, 1)
}

func TestScenarioGalaxyMaxBulk(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(2000)
	st.Galaxy().Max()
	assertDec(t, "galaxies", st.Galaxies, 7)
	assertDec(t, "energy", st.Energy, 2000)

	st.Galaxy().Max()
	assertDec(t, "galaxies again", st.Galaxies, 7)
}

func TestGalaxyMaxLoop(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(20)
	st.Galaxy().Max()
	// 2 + 6 spent; 18 no longer affordable.
	assertDec(t, "galaxies", st.Galaxies, 2)
	assertDec(t, "energy", st.Energy, 12)
}

func TestGalaxyMonotonic(t *testing.T) {
	st := NewState(t0)
	st.Energy = dec(50)
	prevGal, prevEnergy := st.Galaxies, st.Energy
	ops := []func(){st.Galaxy().Purchase, st.Galaxy().Max, st.Galaxy().Purchase, st.Galaxy().Max}
	for i, op := range ops {
		op()
		if st.Galaxies.Lt(prevGal) {
			t.Fatalf("op %d: galaxies dropped %s -> %s", i, prevGal, st.Galaxies)
		}
		if st.Energy.Gt(prevEnergy) {
			t.Fatalf("op %d: energy rose %s -> %s", i, prevEnergy, st.Energy)
		}
		prevGal, prevEnergy = st.Galaxies, st.Energy
	}
}

func TestGalaxyBoostsBoost(t *testing.T) {
	st := NewState(t0)
	st.Galaxies = dec(1)
	// (0 + 1) * 512
	assertDec(t, "boost effect", st.Boost().Effect(), 512)
}

func TestBuildViewVisibility(t *testing.T) {
	st := NewState(t0)
	v := BuildView(st)
	if v.EnergyVisible || v.MilestonesVisible || v.Boost.Visible || v.Galaxy.Unlocked {
		t.Fatalf("fresh view exposes locked panels: %+v", v)
	}
	if len(v.Milestones) != len(Milestones()) {
		t.Fatalf("milestones got %d want %d", len(v.Milestones), len(Milestones()))
	}

	st.Energy = dec(6)
	st.MaxPoints = dec(1e6)
	v = BuildView(st)
	if !v.EnergyVisible || !v.MilestonesVisible || !v.Boost.Visible || !v.Galaxy.Unlocked {
		t.Fatalf("expected panels visible after first reset: %+v", v)
	}
	if !v.Galaxy.AutoReset || !v.FirstReset.CanReset {
		t.Fatalf("expected auto reset hint when reset is possible")
	}
	// gained 2 against current 6
	assertDec(t, "energy gain", v.FirstReset.EnergyGain, -4)
}
