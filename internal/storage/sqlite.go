package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type saveRow struct {
	Slot      string `db:"slot"`
	Payload   string `db:"payload"`
	UpdatedAt int64  `db:"updated_at"`
}

// SQLite stores saves in a local database file, one row per slot.
type SQLite struct {
	conn *sqlx.DB
	slot string
}

func OpenSQLite(path, slot string) (*SQLite, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn, slot: slot}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLite) Load(ctx context.Context) ([]byte, bool, error) {
	var row saveRow
	err := s.conn.GetContext(ctx, &row, `SELECT slot, payload, updated_at FROM saves WHERE slot = ?`, s.slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Payload), true, nil
}

func (s *SQLite) Save(ctx context.Context, raw []byte) error {
	row := saveRow{Slot: s.slot, Payload: string(raw), UpdatedAt: time.Now().UnixMilli()}
	_, err := s.conn.NamedExecContext(ctx, `
		INSERT INTO saves (slot, payload, updated_at)
		VALUES (:slot, :payload, :updated_at)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, row)
	return err
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
