package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores saves in game.saves. The schema comes from the db
// package migrations.
type Postgres struct {
	pool *pgxpool.Pool
	slot string
}

func NewPostgres(pool *pgxpool.Pool, slot string) (*Postgres, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	return &Postgres{pool: pool, slot: slot}, nil
}

func (p *Postgres) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx, `
		SELECT payload::text
		FROM game.saves
		WHERE slot = $1
	`, p.slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (p *Postgres) Save(ctx context.Context, raw []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO game.saves (slot, payload, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (slot) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, p.slot, string(raw))
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
