package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/config"
	"github.com/spec-kit/employee-directory/internal/repository"
)

// Backend is the key-value store selected by configuration together with
// whatever connections it owns.
type Backend struct {
	Name    string
	Store   repository.KeyValueStore
	closers []io.Closer
}

// Close releases every connection held by the backend.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenBackend connects the store named by cfg.Store.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; the collection is lost on restart")
		return &Backend{Name: config.BackendMemory, Store: repository.NewMemoryStore()}, nil

	case config.BackendRedis:
		rdb := NewRedis(ctx, cfg.Redis, logger)
		return &Backend{
			Name:    config.BackendRedis,
			Store:   repository.NewRedisStore(rdb.Client),
			closers: []io.Closer{rdb},
		}, nil

	case config.BackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		return &Backend{
			Name:    config.BackendPostgres,
			Store:   repository.NewPostgresStore(pg.PoolHandle()),
			closers: []io.Closer{pg},
		}, nil

	case config.BackendSQLite:
		lite, err := NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewSQLiteStore(ctx, lite.DB)
		if err != nil {
			_ = lite.Close()
			return nil, err
		}
		return &Backend{
			Name:    config.BackendSQLite,
			Store:   store,
			closers: []io.Closer{lite},
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
