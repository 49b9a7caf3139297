// Package postgres persists the entry collection in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"baedal/internal/core"
	"baedal/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

var copyColumns = []string{
	"position", "id", "date", "type", "round", "unit_price",
	"delivery_count", "return_count", "delivery_interruption_amount", "fresh_bag_count",
	"penalty_amount", "industrial_accident_cost", "fuel_cost", "maintenance_cost",
	"vat_amount", "income_tax_amount", "tax_accountant_fee",
	"custom_items", "timestamp", "group_id", "memo",
}

// Store is a store.Persister over a pgx pool. Safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the entries table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Load(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.pool.Query(ctx, `select `+storage.EntryColumns+` from entries order by position`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := storage.ScanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Save replaces the table contents in one transaction using COPY.
func (s *Store) Save(ctx context.Context, entries []core.Entry) error {
	rows := make([][]any, 0, len(entries))
	for i, e := range entries {
		args, err := storage.EntryArgs(e)
		if err != nil {
			return err
		}
		rows = append(rows, append([]any{int64(i)}, args...))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `delete from entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"entries"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}
	return nil
}
