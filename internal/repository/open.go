// Package repository selects a storage backend.
package repository

import (
	"context"
	"fmt"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/repository/postgres"
	"github.com/msomdec/passgate/internal/repository/sqlite"
)

// Open connects to the backend named by driver and applies its migrations.
func Open(ctx context.Context, driver, dsn string) (domain.Store, error) {
	var (
		store domain.Store
		err   error
	)
	switch driver {
	case "sqlite":
		store, err = sqlite.New(dsn)
	case "postgres":
		store, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	return store, nil
}
