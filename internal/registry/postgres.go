package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS links (
	code TEXT PRIMARY KEY,
	url  TEXT NOT NULL
)`

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore keeps one row per short code in the links table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore takes ownership of pool and makes sure the links table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	const op = "registry.postgres.New"

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, errx.E(op, errx.Storage, fmt.Errorf("create schema: %w", err))
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (Registry, error) {
	reg, err := loadRows(ctx, s.pool)
	if err != nil {
		return nil, errx.E("registry.postgres.Load", errx.Storage, err)
	}
	return reg, nil
}

func (s *PostgresStore) Save(ctx context.Context, reg Registry) error {
	const op = "registry.postgres.Save"

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "LOCK TABLE links IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM links"); err != nil {
			return err
		}
		return apply(ctx, tx, change{upserts: reg})
	})
	if err != nil {
		return errx.E(op, errx.Storage, err)
	}
	return nil
}

// Update holds a SHARE ROW EXCLUSIVE lock on the table for the whole cycle, which
// conflicts with itself, so concurrent updates run one after another.
func (s *PostgresStore) Update(ctx context.Context, fn UpdateFunc) error {
	const op = "registry.postgres.Update"

	var fnErr error
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "LOCK TABLE links IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return err
		}

		reg, err := loadRows(ctx, tx)
		if err != nil {
			return err
		}
		before := reg.Clone()

		if fnErr = fn(reg); fnErr != nil {
			return fnErr
		}
		return apply(ctx, tx, diff(before, reg))
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return errx.E(op, errx.Storage, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func loadRows(ctx context.Context, q dbtx) (Registry, error) {
	rows, err := q.Query(ctx, "SELECT code, url FROM links")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reg := Registry{}
	for rows.Next() {
		var code, url string
		if err := rows.Scan(&code, &url); err != nil {
			return nil, err
		}
		reg[code] = url
	}
	return reg, rows.Err()
}

func apply(ctx context.Context, q dbtx, c change) error {
	if c.empty() {
		return nil
	}

	batch := &pgx.Batch{}
	for code, url := range c.upserts {
		batch.Queue(
			"INSERT INTO links (code, url) VALUES ($1, $2) ON CONFLICT (code) DO UPDATE SET url = EXCLUDED.url",
			code, url,
		)
	}
	for _, code := range c.deletes {
		batch.Queue("DELETE FROM links WHERE code = $1", code)
	}

	results := q.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}
