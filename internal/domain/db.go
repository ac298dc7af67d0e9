package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres) owns its own migration files and
// strategy, so the whole backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Store is a migrated database that exposes the repositories.
type Store interface {
	Database
	Accounts() AccountRepository
	Wallets() WalletRepository
}
