// Package worker copies the persisted ledger to an off-site snapshot.
package worker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"baedal/internal/amqp"
	"baedal/internal/core"
	"baedal/internal/log"
	"baedal/internal/sheets"
	"baedal/internal/store"
)

// Source loads the current persisted collection. Every store.Persister is one.
type Source interface {
	Load(ctx context.Context) ([]core.Entry, error)
}

// BackupWorker writes the persisted collection to a snapshot target whenever
// the ledger changes and on a timer. Overlapping triggers share one run, and
// a snapshot identical to the last one written is skipped.
type BackupWorker struct {
	source Source
	target sheets.SnapshotWriter
	logger *log.Logger
	group  singleflight.Group

	mu          sync.Mutex
	lastWritten []core.Entry
	written     bool
	runs        int
}

func NewBackupWorker(source Source, target sheets.SnapshotWriter, logger *log.Logger) *BackupWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &BackupWorker{
		source: source,
		target: target,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEntriesChanged is the AMQP consumer callback.
func (w *BackupWorker) HandleEntriesChanged(ctx context.Context, msg *amqp.EntriesChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing entries changed message",
		log.FieldOperation, msg.Operation,
		log.FieldEntryID, msg.EntryID,
		"total", msg.Total)
	_, err := w.Backup(ctx)
	return err
}

// Backup writes a snapshot unless nothing changed since the last one. It
// reports whether a write happened.
func (w *BackupWorker) Backup(ctx context.Context) (bool, error) {
	v, err, shared := w.group.Do("backup", func() (any, error) {
		return w.backup(ctx)
	})
	if shared {
		w.logger.DebugContext(ctx, "Joined in-flight backup")
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (w *BackupWorker) backup(ctx context.Context) (bool, error) {
	entries, err := w.source.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load entries: %w", err)
	}
	store.SortByDateDesc(entries)

	w.mu.Lock()
	w.runs++
	unchanged := w.written && reflect.DeepEqual(entries, w.lastWritten)
	w.mu.Unlock()
	if unchanged {
		w.logger.DebugContext(ctx, "Snapshot unchanged, skipping backup", log.FieldCount, len(entries))
		return false, nil
	}

	start := time.Now()
	if err := w.target.WriteSnapshot(ctx, entries); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}

	w.mu.Lock()
	w.lastWritten = entries
	w.written = true
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Backup completed",
		log.FieldOperation, log.OpBackup,
		log.FieldCount, len(entries),
		log.FieldDuration, time.Since(start).Milliseconds())
	return true, nil
}

// Run backs up once immediately and then on every tick until ctx ends.
// Failed runs are logged and retried on the next tick.
func (w *BackupWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("backup interval must be positive")
	}
	w.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runLogged(ctx)
		}
	}
}

func (w *BackupWorker) runLogged(ctx context.Context) {
	if _, err := w.Backup(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Scheduled backup failed", log.FieldError, err)
	}
}

// Runs returns how many backups actually executed (shared calls count once).
func (w *BackupWorker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Restore replaces the persisted collection with the snapshot held by reader.
func Restore(ctx context.Context, reader sheets.SnapshotReader, target store.Persister) (int, error) {
	entries, err := reader.ReadSnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("snapshot row %d (%s): %w", i+1, e.ID, err)
		}
	}
	store.SortByDateDesc(entries)
	if err := target.Save(ctx, entries); err != nil {
		return 0, fmt.Errorf("save restored entries: %w", err)
	}
	return len(entries), nil
}
