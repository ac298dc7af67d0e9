package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and implements domain.Store.
type DB struct {
	SqlDB *sql.DB

	accounts *AccountRepository
	wallets  *WalletRepository
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx := context.Background()

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single writer connection keeps pragmas consistent and avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.accounts = NewAccountRepository(db)
	db.wallets = NewWalletRepository(db)
	return db, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Accounts() domain.AccountRepository { return db.accounts }
func (db *DB) Wallets() domain.WalletRepository   { return db.wallets }

// constraintColumn reports the "table.column" named in a SQLite UNIQUE
// constraint violation, or "" if err is not one.
func constraintColumn(err error) string {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	msg := err.Error()
	_, after, ok := strings.Cut(msg, "UNIQUE constraint failed: ")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(after, " ,)"); i >= 0 {
		after = after[:i]
	}
	return after
}
