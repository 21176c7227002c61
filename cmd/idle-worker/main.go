package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"idlegalaxy/internal/clock"
	"idlegalaxy/internal/config"
	"idlegalaxy/internal/game"
	"idlegalaxy/internal/save"
	"idlegalaxy/internal/scheduler"
	"idlegalaxy/internal/storage"
)

// idle-worker advances a stored game without serving it. With
// IDLE_WORKER_RUN_ONCE it catches up offline progress once and exits, which
// suits a cron job.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open storage failed", "storage", cfg.Storage, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	clk := clock.Real{}
	st, err := save.Load(ctx, store, clk.Now(), logger)
	if err != nil {
		logger.Error("load save failed", "err", err)
		os.Exit(1)
	}
	svc := game.NewService(st, clk, logger)

	tickEvery := cfg.TickEvery
	if tickEvery <= 0 {
		tickEvery = st.UpdateRate
	}
	loop := scheduler.Loop{
		TickEvery: tickEvery,
		SaveEvery: cfg.SaveEvery,
		Engine:    svc,
		Save: func(ctx context.Context) error {
			return save.Persist(ctx, store, svc.Snapshot())
		},
		Log: logger,
	}

	if cfg.RunOnce {
		if err := loop.Once(ctx); err != nil {
			logger.Error("tick failed", "err", err)
			os.Exit(1)
		}
		v := svc.View()
		logger.Info("worker run-once completed", "points", v.Points.String(), "energy", v.Energy.String(), "galaxies", v.Galaxy.Amount.String())
		return
	}

	if err := loop.Run(ctx); err != nil {
		logger.Error("final save failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker shutdown")
}
