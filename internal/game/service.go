package game

import (
	"log/slog"
	"sync"

	"idlegalaxy/internal/clock"
)

// Service owns one State and serializes every operation on it behind a
// single mutex. Ticks, triggers, views and snapshots may come from
// different goroutines.
type Service struct {
	mu  sync.Mutex
	st  *State
	clk clock.Clock
	log *slog.Logger
}

func NewService(st *State, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if st == nil {
		st = NewState(clk.Now())
	}
	return &Service{st: st, clk: clk, log: logger}
}

// Tick advances production to the clock's current time.
func (s *Service) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Tick(s.clk.Now())
}

// Do runs the engine operation named by a. Operations whose gate is closed
// are no-ops and report changed=false; only an unknown action is an error.
func (s *Service) Do(a Action) (changed bool, err error) {
	if _, err := ParseAction(string(a)); err != nil {
		return false, err
	}
	return s.apply(a), nil
}

func (s *Service) apply(a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := *s.st
	switch a {
	case ActionBuyGenerator:
		s.st.Generator().Purchase()
	case ActionBuyBoost:
		s.st.Boost().Purchase()
	case ActionFirstReset:
		s.st.FirstReset().Reset()
	case ActionBuyGalaxy:
		s.st.Galaxy().Purchase()
	case ActionMaxGalaxies:
		s.st.Galaxy().Max()
	default:
		return false
	}
	changed := !sameProgress(&before, s.st)

	switch {
	case !changed:
		s.log.Debug("action had no effect", "action", a)
	case a == ActionBuyGenerator || a == ActionBuyBoost:
		s.log.Debug("upgrade purchased", "action", a,
			"generator", s.st.GeneratorLevel.String(),
			"boost", s.st.BoostLevel.String())
	default:
		s.log.Info("prestige applied", "action", a,
			"energy", s.st.Energy.String(),
			"galaxies", s.st.Galaxies.String())
	}
	return changed
}

func (s *Service) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildView(s.st)
}

// Snapshot returns a copy of the state safe to use without the lock.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st
}

func sameProgress(a, b *State) bool {
	return a.Points.Eq(b.Points) &&
		a.GeneratorLevel.Eq(b.GeneratorLevel) &&
		a.BoostLevel.Eq(b.BoostLevel) &&
		a.Energy.Eq(b.Energy) &&
		a.Galaxies.Eq(b.Galaxies) &&
		a.MaxPoints.Eq(b.MaxPoints)
}
