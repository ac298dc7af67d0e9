// Package postgres implements the account store on PostgreSQL through the
// pgx database/sql driver, with goose-managed migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/repository/postgres/migrations"
)

// DBTX is the subset of database/sql used by the repositories. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a Postgres connection pool and implements domain.Store.
type DB struct {
	SqlDB *sql.DB

	accounts *AccountRepository
	wallets  *WalletRepository
}

// New opens a connection pool for dsn and verifies it is reachable.
func New(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return Wrap(sqlDB), nil
}

// Wrap builds a DB around an already opened *sql.DB.
func Wrap(sqlDB *sql.DB) *DB {
	return &DB{
		SqlDB:    sqlDB,
		accounts: NewAccountRepository(sqlDB),
		wallets:  NewWalletRepository(sqlDB),
	}
}

// Migrate applies pending goose migrations.
func (db *DB) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db.SqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied", "file", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Accounts() domain.AccountRepository { return db.accounts }
func (db *DB) Wallets() domain.WalletRepository   { return db.wallets }

// uniqueViolation returns the constraint name of a unique_violation
// (SQLSTATE 23505), or "" for any other error.
func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
