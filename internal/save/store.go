package save

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"idlegalaxy/internal/game"
)

// Store reads and writes one raw save blob. ok is false when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (raw []byte, ok bool, err error)
	Save(ctx context.Context, raw []byte) error
}

// Load returns the stored state reconciled against defaults, or fresh
// defaults when the store is empty.
func Load(ctx context.Context, store Store, now time.Time, logger *slog.Logger) (*game.State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load save: %w", err)
	}
	if !ok {
		logger.Info("no save found, starting fresh")
		return game.NewState(now), nil
	}
	st, err := Decode(raw, now)
	if err != nil {
		return nil, err
	}
	logger.Info("save loaded",
		"points", st.Points.String(),
		"energy", st.Energy.String(),
		"galaxies", st.Galaxies.String(),
		"last_update", st.LastUpdate,
	)
	return &st, nil
}

func Persist(ctx context.Context, store Store, st game.State) error {
	raw, err := Encode(st)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := store.Save(ctx, raw); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}
