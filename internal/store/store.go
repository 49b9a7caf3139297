// Package store owns the canonical collection of entries.
//
// The store assigns ids, rejects exact duplicates on create, merges strict
// imports and writes the whole collection through a Persister after every
// mutation. Mutations are applied in memory first; when the write fails the
// caller gets an error wrapping core.ErrPersistence and the in-memory state
// stays as applied.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"baedal/internal/core"
	"baedal/internal/log"
)

// Persister durably stores the full entry collection.
type Persister interface {
	// Load returns every persisted entry in any order.
	Load(ctx context.Context) ([]core.Entry, error)
	// Save replaces the persisted collection. Entries arrive sorted by date, newest first.
	Save(ctx context.Context, entries []core.Entry) error
}

// ImportResult reports how a strict import went.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type Store struct {
	mu        sync.RWMutex
	entries   []core.Entry
	seq       *SequenceAllocator
	persister Persister
	now       func() time.Time
	logger    *log.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// Open loads the persisted collection and recovers the id sequences from it.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		seq:       NewSequenceAllocator(),
		persister: p,
		now:       time.Now,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load entries: %w", core.ErrPersistence, err)
	}
	s.entries = make([]core.Entry, 0, len(loaded))
	for _, e := range loaded {
		s.entries = append(s.entries, e.Clone())
	}
	s.seq.Recover(s.entries)

	s.logger.InfoContext(ctx, "Entry store loaded",
		"entries", len(s.entries),
		"last_income_seq", s.seq.Last(core.Income),
		"last_expense_seq", s.seq.Last(core.Expense))
	return s, nil
}

// Insert creates or updates an entry.
//
// An entry whose id matches a stored one is merged into that record in place
// (see mergeEntry). Its type must match the stored one, since the id prefix
// encodes the class.
// An entry without an id is a create: it fails with core.ErrDuplicateEntry
// when an exact duplicate exists, otherwise it gets the next id for its class
// and the current time.
func (s *Store) Insert(ctx context.Context, e core.Entry) (core.Entry, error) {
	return s.insert(ctx, e, false)
}

// ForceInsert is Insert without the duplicate guard, for a user who confirmed
// saving an identical entry again.
func (s *Store) ForceInsert(ctx context.Context, e core.Entry) (core.Entry, error) {
	return s.insert(ctx, e, true)
}

func (s *Store) insert(ctx context.Context, e core.Entry, force bool) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e = e.Clone()
	if e.ID != "" {
		i := s.indexOf(e.ID)
		if i < 0 {
			return core.Entry{}, fmt.Errorf("%w: %s", core.ErrEntryNotFound, e.ID)
		}
		merged, err := mergeEntry(s.entries[i], e)
		if err != nil {
			return core.Entry{}, err
		}
		s.entries[i] = merged
		return merged.Clone(), s.persist(ctx, log.OpUpdate)
	}

	if !force {
		if dup, ok := findDuplicate(s.entries, e); ok {
			return core.Entry{}, fmt.Errorf("%w: same content as %s on %s", core.ErrDuplicateEntry, dup.ID, dup.Date)
		}
	}
	e.ID = s.seq.Next(e.Type)
	e.Timestamp = s.now().UTC()
	s.entries = append(s.entries, e)
	return e, s.persist(ctx, log.OpCreate)
}

// mergeEntry applies an update to the stored record. Group, memo, round and
// timestamp left at their zero value keep the stored value, as does a nil
// custom item list; an empty list clears it. Amount and count fields are
// always taken from the update.
func mergeEntry(stored, e core.Entry) (core.Entry, error) {
	if e.Type == "" {
		e.Type = stored.Type
	}
	if e.Type != stored.Type {
		return core.Entry{}, fmt.Errorf("%w: %s cannot change from %s to %s",
			core.ErrInvalidType, stored.ID, stored.Type, e.Type)
	}
	if e.GroupID == "" {
		e.GroupID = stored.GroupID
	}
	if e.Memo == "" {
		e.Memo = stored.Memo
	}
	if e.Round == 0 {
		e.Round = stored.Round
	}
	if e.CustomItems == nil {
		e.CustomItems = stored.CustomItems
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = stored.Timestamp
	}
	return e.Clone(), nil
}

// BulkImportStrict appends every candidate that does not duplicate a stored
// entry or an earlier candidate of the same batch. Income and expense rows
// draw ids from their own counters. Rows without a valid type are skipped.
// Importing the same batch twice adds nothing the second time.
func (s *Store) BulkImportStrict(ctx context.Context, candidates []core.Entry) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ImportResult
	partitions := map[core.EntryType][]core.Entry{}
	for _, c := range candidates {
		if !c.Type.Valid() {
			res.Skipped++
			continue
		}
		partitions[c.Type] = append(partitions[c.Type], c)
	}

	now := s.now().UTC()
	for _, t := range []core.EntryType{core.Income, core.Expense} {
		for _, c := range partitions[t] {
			if _, ok := findDuplicate(s.entries, c); ok {
				res.Skipped++
				continue
			}
			c = c.Clone()
			c.ID = s.seq.Next(t)
			if c.Timestamp.IsZero() {
				c.Timestamp = now
			}
			s.entries = append(s.entries, c)
			res.Added++
		}
	}

	if res.Added == 0 {
		return res, nil
	}
	return res, s.persist(ctx, log.OpImport)
}

// Delete removes one entry by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", core.ErrEntryNotFound, id)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.persist(ctx, log.OpDelete)
}

// DeleteGroup removes the entries of one installment group. With a non-zero
// cutoff only entries dated after it are removed, which cancels the remaining
// payments while keeping the ones already made.
func (s *Store) DeleteGroup(ctx context.Context, groupID string, after core.Date) (int, error) {
	if groupID == "" {
		return 0, errors.New("group id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0:0]
	removed, members := 0, 0
	for _, e := range s.entries {
		if e.GroupID != groupID {
			kept = append(kept, e)
			continue
		}
		members++
		if !after.IsZero() && !e.Date.After(after.Time) {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	if members == 0 {
		return 0, fmt.Errorf("%w: group %s", core.ErrEntryNotFound, groupID)
	}
	if removed == 0 {
		return 0, nil
	}
	s.entries = kept
	return removed, s.persist(ctx, log.OpDelete)
}

// Clear empties the store and restarts both id sequences at 1.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.seq.Reset()
	return s.persist(ctx, log.OpClear)
}

// Get returns a copy of one entry.
func (s *Store) Get(id string) (core.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Entry{}, false
	}
	return s.entries[i].Clone(), true
}

// Entries returns a copy of the collection sorted by date, newest first.
func (s *Store) Entries() []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedSnapshot()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sortedSnapshot() []core.Entry {
	out := make([]core.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	SortByDateDesc(out)
	return out
}

// persist must be called with the write lock held.
func (s *Store) persist(ctx context.Context, op string) error {
	snapshot := s.sortedSnapshot()
	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist entries",
			log.FieldOperation, op,
			"entries", len(snapshot),
			log.FieldError, err)
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.logger.DebugContext(ctx, "Entries persisted", log.FieldOperation, op, "entries", len(snapshot))
	return nil
}

// SortByDateDesc orders entries newest first, keeping the relative order of
// entries that share a date.
func SortByDateDesc(entries []core.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date.Time)
	})
}
