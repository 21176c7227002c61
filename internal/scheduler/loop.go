// Package scheduler drives the production tick and the periodic save from
// one goroutine, so a save never interleaves with a tick.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

const shutdownSaveTimeout = 5 * time.Second

type Ticker interface {
	Tick()
}

type SaveFunc func(ctx context.Context) error

type Loop struct {
	TickEvery time.Duration
	SaveEvery time.Duration
	Engine    Ticker
	Save      SaveFunc
	Log       *slog.Logger
}

// Run blocks until ctx is done, then performs one last save on a fresh
// context so shutdown does not lose the final progress.
func (l Loop) Run(ctx context.Context) error {
	logger := l.Log
	if logger == nil {
		logger = slog.Default()
	}
	tick := time.NewTicker(l.TickEvery)
	defer tick.Stop()
	saveTick := time.NewTicker(l.SaveEvery)
	defer saveTick.Stop()

	logger.Info("scheduler started", "tick_every", l.TickEvery.String(), "save_every", l.SaveEvery.String())
	for {
		select {
		case <-ctx.Done():
			l.Engine.Tick()
			saveCtx, cancel := context.WithTimeout(context.Background(), shutdownSaveTimeout)
			err := l.save(saveCtx, logger)
			cancel()
			logger.Info("scheduler stopped")
			return err
		case <-tick.C:
			l.Engine.Tick()
		case <-saveTick.C:
			// A failed save is retried on the next interval.
			_ = l.save(ctx, logger)
		}
	}
}

// Once ticks and saves a single time.
func (l Loop) Once(ctx context.Context) error {
	l.Engine.Tick()
	logger := l.Log
	if logger == nil {
		logger = slog.Default()
	}
	return l.save(ctx, logger)
}

func (l Loop) save(ctx context.Context, logger *slog.Logger) error {
	if l.Save == nil {
		return nil
	}
	if err := l.Save(ctx); err != nil {
		logger.Error("save failed", "err", err)
		return err
	}
	logger.Debug("game saved")
	return nil
}
