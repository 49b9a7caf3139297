// Package memory is an in-process snapshot target used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"baedal/internal/core"
	ports "baedal/internal/sheets"
)

var _ ports.SnapshotStore = (*Store)(nil)

// Store keeps the last snapshot as the same values matrix a spreadsheet would hold.
type Store struct {
	mu     sync.Mutex
	values [][]any
	writes int
}

func New() *Store {
	return &Store{}
}

func (s *Store) WriteSnapshot(ctx context.Context, entries []core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values, err := ports.EncodeRows(entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = values
	s.writes++
	return nil
}

func (s *Store) ReadSnapshot(ctx context.Context) ([]core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	values := s.values
	s.mu.Unlock()
	return ports.DecodeRows(values)
}

// Writes returns how many snapshots have been written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Rows returns the number of data rows in the last snapshot.
func (s *Store) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	return len(s.values) - 1
}
