package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/postgres"
	"github.com/marcelsud/webhook-inspector/webhook/sqlite"
)

// ErrEphemeral is returned by OpenDurable when the configured store would vanish with the process
var ErrEphemeral = errors.New("in-memory sqlite store is private to this process; set SQLITE_PATH to a file")

// Ephemeral reports whether cfg selects an in-memory sqlite database
func Ephemeral(cfg *config.Config) bool {
	return cfg.StorageDriver == config.DriverSQLite && sqlite.InMemory(cfg.SQLitePath)
}

// OpenDurable is Open for tools that act on the store the API serves.
// Their writes to an in-memory database would never be seen, so it is refused.
func OpenDurable(ctx context.Context, cfg *config.Config) (webhook.Repository, error) {
	if Ephemeral(cfg) {
		return nil, ErrEphemeral
	}
	return Open(ctx, cfg)
}

// Open returns the store selected by STORAGE_DRIVER, with its schema in place
func Open(ctx context.Context, cfg *config.Config) (webhook.Repository, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepositoryWithPoolConfig(
			cfg.PostgresConnectionString(),
			cfg.PostgresMaxOpenConns,
			cfg.PostgresMaxIdleConns,
			cfg.PostgresConnMaxLifeMinutes,
		)
		if err != nil {
			return nil, err
		}
		if err := repo.CreateTable(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.NewRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
