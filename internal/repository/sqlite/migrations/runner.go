package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
)

// Run applies all unapplied migrations from the embedded FS to the database.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := Apply(ctx, db, FS)
	return err
}

// Apply applies every *.sql file in fsys that is not yet recorded in
// schema_migrations, in lexical order, each in its own transaction. It
// returns the filenames applied by this call.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS) ([]string, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return nil, fmt.Errorf("ensure migrations table: %w", err)
	}

	pending, err := Pending(ctx, db, fsys)
	if err != nil {
		return nil, err
	}

	for _, name := range pending {
		if err := applyOne(ctx, db, fsys, name); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
		slog.Info("migration applied", "file", name)
	}
	return pending, nil
}

// Pending lists the migrations in fsys that have not been recorded as applied.
// The schema_migrations table must already exist.
func Pending(ctx context.Context, db *sql.DB, fsys fs.FS) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("get applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migration files: %w", err)
	}

	var pending []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		if applied[e.Name()] {
			slog.Debug("migration already applied", "file", e.Name())
			continue
		}
		pending = append(pending, e.Name())
	}
	slices.Sort(pending)
	return pending, nil
}

func applyOne(ctx context.Context, db *sql.DB, fsys fs.FS, name string) error {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
