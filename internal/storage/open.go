// Package storage holds the save backends: a JSON file per slot, a SQLite
// table, or a PostgreSQL table.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"idlegalaxy/internal/config"
	"idlegalaxy/internal/db"
	"idlegalaxy/internal/save"
)

type Backend interface {
	save.Store
	io.Closer
}

var (
	_ Backend = (*File)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Postgres)(nil)
)

// Open builds the backend named by cfg.Storage. Postgres runs migrations
// before the pool is handed out.
func Open(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Storage {
	case config.StorageFile:
		f, err := NewFile(cfg.SavePath, cfg.SaveSlot)
		if err != nil {
			return nil, err
		}
		logger.Info("save storage ready", "backend", cfg.Storage, "path", f.Path())
		return f, nil
	case config.StorageSQLite:
		s, err := OpenSQLite(cfg.SQLitePath, cfg.SaveSlot)
		if err != nil {
			return nil, err
		}
		logger.Info("save storage ready", "backend", cfg.Storage, "path", cfg.SQLitePath)
		return s, nil
	case config.StoragePostgres:
		if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		p, err := NewPostgres(pool, cfg.SaveSlot)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("save storage ready", "backend", cfg.Storage, "slot", cfg.SaveSlot)
		return p, nil
	default:
		return nil, fmt.Errorf("%w: storage %q", config.ErrInvalid, cfg.Storage)
	}
}
