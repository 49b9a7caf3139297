// Package storage persists the entry collection in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"baedal/internal/core"
	"baedal/internal/log"

	_ "modernc.org/sqlite"
)

var (
	insertEntrySQL = "INSERT INTO entries (position, " + EntryColumns + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", EntryColumnCount+1), ", ") + ")"
	selectEntriesSQL = "SELECT " + EntryColumns + " FROM entries ORDER BY position"
)

// SQLiteRepository is a store.Persister over a single SQLite file. The row
// position column keeps the order the collection was saved in.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ready reports whether the database answers.
func (r *SQLiteRepository) Ready(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load returns the saved collection in saved order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := ScanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Save replaces the table contents in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, entries []core.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		args, err := EntryArgs(e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, append([]any{int64(i)}, args...)...); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}
	r.logger.DebugContext(ctx, "Entries saved to SQLite", log.FieldCount, len(entries))
	return nil
}
