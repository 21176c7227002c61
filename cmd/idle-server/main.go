package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idlegalaxy/internal/api"
	"idlegalaxy/internal/clock"
	"idlegalaxy/internal/config"
	"idlegalaxy/internal/game"
	"idlegalaxy/internal/save"
	"idlegalaxy/internal/scheduler"
	"idlegalaxy/internal/storage"

	"golang.org/x/sync/errgroup"
)

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
		// A corrupt save is left untouched for inspection.
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

	server := api.New(cfg, logger, svc)
	if err := server.CheckRoutes(); err != nil {
		logger.Error("route table invalid", "err", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(server.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info("idle galaxy server listening", "addr", cfg.Addr, "storage", cfg.Storage, "tick_every", tickEvery.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server shutdown")
}
