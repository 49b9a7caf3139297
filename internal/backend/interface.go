// Package backend builds the store.Persister selected by configuration.
package backend

import (
	"context"

	"baedal/internal/store"
)

// BackendType names a persistence backend.
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (t BackendType) String() string { return string(t) }

func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the persister and its lifecycle hooks. Cleanup and
// Ready are never nil.
type BackendResult struct {
	Type      BackendType
	Persister store.Persister
	Cleanup   CleanupFunc
	Ready     ReadyFunc
}

// Factory creates persisters based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// File backend
	DataFile string

	// SQLite backend
	SQLiteDBPath string

	// Postgres backend
	DatabaseURL string
}
