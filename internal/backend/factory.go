package backend

import (
	"context"
	"fmt"

	"baedal/internal/log"
	"baedal/internal/storage"
	"baedal/internal/storage/memory"
	"baedal/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res = &BackendResult{Persister: memory.New()}
	case FileBackend:
		res, err = f.createFileBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Type = config.Type
	if res.Cleanup == nil {
		res.Cleanup = func() error { return nil }
	}
	if res.Ready == nil {
		res.Ready = func(context.Context) error { return nil }
	}
	f.logger.Info("Initialized persistence backend", log.FieldBackend, config.Type.String())
	return res, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	p, err := memory.NewFile(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	f.logger.Debug("Using JSON data file", "path", p.Path())
	return &BackendResult{Persister: p}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Debug("Using SQLite database", "db_path", config.SQLiteDBPath)
	return &BackendResult{Persister: repo, Cleanup: repo.Close, Ready: repo.Ready}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	pg, err := postgres.Open(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}
	return &BackendResult{Persister: pg, Cleanup: pg.Close, Ready: pg.Ready}, nil
}
