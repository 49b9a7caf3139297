// Package memory keeps the entry collection in process memory, optionally
// mirrored to a JSON file on disk.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"baedal/internal/core"
)

// Persister is a store.Persister backed by a slice. With a file path every
// Save also rewrites the file; the write goes to a temp file that is renamed
// over the target so a crash never leaves a half-written collection.
type Persister struct {
	mu      sync.Mutex
	entries []core.Entry
	path    string
}

// New returns a purely in-memory persister seeded with entries.
func New(seed ...core.Entry) *Persister {
	return &Persister{entries: cloneAll(seed)}
}

// NewFile returns a persister mirrored to the JSON file at path. A missing
// file is an empty collection.
func NewFile(path string) (*Persister, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	p := &Persister{path: path}
	entries, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p.entries = entries
	return p, nil
}

func (p *Persister) Load(ctx context.Context) ([]core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneAll(p.entries), nil
}

func (p *Persister) Save(ctx context.Context, entries []core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path != "" {
		if err := writeFile(p.path, entries); err != nil {
			return err
		}
	}
	p.entries = cloneAll(entries)
	return nil
}

// Path returns the mirror file, or "" for a purely in-memory persister.
func (p *Persister) Path() string { return p.path }

func readFile(path string) ([]core.Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []core.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode data file %s: %w", path, err)
	}
	return entries, nil
}

func writeFile(path string, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func cloneAll(in []core.Entry) []core.Entry {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.Entry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
