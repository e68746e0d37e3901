package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// applyMigrations runs every *.sql file in migrationFS not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
func applyMigrations(ctx context.Context, pool *ConnectionPool, migrationFS fs.FS) error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER
		);
	`
	if _, err := pool.DB().ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("sqlite: create %s table: %w", migrationTable, err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("sqlite: read migrations: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		version := strings.TrimSuffix(file, ".sql")

		applied, err := isVersionApplied(ctx, pool.DB(), version)
		if err != nil {
			return fmt.Errorf("sqlite: check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("sqlite: read migration %s: %w", file, err)
		}

		started := time.Now()
		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("sqlite: execute migration %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO `+migrationTable+` (version, applied_at, execution_time_ms) VALUES (?, ?, ?)`,
				version,
				time.Now().UTC().Format(time.RFC3339),
				time.Since(started).Milliseconds(),
			)
			if err != nil {
				return fmt.Errorf("sqlite: record migration %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func isVersionApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
