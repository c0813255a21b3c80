package main

import (
	"context"
	"fmt"

	"github.com/ahardinathillc/whippet/internal/adapter/postgres"
	"github.com/ahardinathillc/whippet/internal/adapter/sqlstore"
	"github.com/ahardinathillc/whippet/internal/config"
	"github.com/ahardinathillc/whippet/internal/port/database"
)

// storeHandle pairs a database.Store with the lifecycle operations of the
// adapter that backs it.
type storeHandle struct {
	database.Store
	migrate  func(context.Context) error
	rollback func(ctx context.Context, steps int) error
	version  func(context.Context) (int64, error)
	close    func()
}

// openStore connects the adapter selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.Database) (*storeHandle, error) {
	if cfg.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &storeHandle{
			Store:    postgres.NewStore(pool),
			migrate:  func(ctx context.Context) error { return postgres.RunMigrations(ctx, cfg.DSN) },
			rollback: func(ctx context.Context, steps int) error { return postgres.RollbackMigrations(ctx, cfg.DSN, steps) },
			version:  func(ctx context.Context) (int64, error) { return postgres.MigrationVersion(ctx, cfg.DSN) },
			close:    pool.Close,
		}, nil
	}

	s, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
	}
	return &storeHandle{
		Store:    s,
		migrate:  s.Migrate,
		rollback: s.Rollback,
		version:  s.MigrationVersion,
		close:    func() { _ = s.Close() },
	}, nil
}
