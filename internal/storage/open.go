package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend names a Store implementation
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Options selects and configures the session store backend
type Options struct {
	Backend       Backend
	Redis         RedisConfig
	Postgres      PostgresConfig
	MigrationsDir string
}

// Open creates the configured Store. The postgres backend applies pending
// migrations before returning.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		slog.Warn("using in-memory session store; sessions are lost on restart")
		return NewMemoryStore(), nil

	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis)

	case BackendPostgres:
		store, err := NewPostgresStore(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		migrations, err := Migrations(opts.MigrationsDir)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := RunMigrations(ctx, store.Pool(), migrations); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session store backend %q", opts.Backend)
	}
}
