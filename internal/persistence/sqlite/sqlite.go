// Package sqlite stores the booking document in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/activity-booking/internal/persistence"
	"github.com/example/activity-booking/internal/persistence/sqlite/migrations"
)

// documentID is the primary key of the only booking_documents row.
const documentID = 1

// Store keeps the whole booking document in a single row and replaces it on
// every Save.
type Store struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	logger *slog.Logger
}

// Open opens the database at path and applies pending migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(path)
	if err != nil {
		return nil, err
	}
	if err := applyMigrations(ctx, pool, migrations.FS); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlite: run migrations: %w", err)
	}

	return &Store{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		logger: logger.With("store", "sqlite", "path", path),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.pool.Close()
}

// Load returns the stored document. A missing row or an undecodable body
// yields an empty map. Database failures are returned.
func (s *Store) Load(ctx context.Context) (persistence.Sessions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body string
	err := s.pool.DB().QueryRowContext(ctx, `SELECT body FROM booking_documents WHERE id = ?`, documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Sessions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load booking document: %w", err)
	}

	sessions, err := persistence.DecodeDocument([]byte(body))
	if err != nil {
		s.logger.WarnContext(ctx, "booking document corrupt, starting empty", "error", err)
		return persistence.Sessions{}, nil
	}
	return sessions, nil
}

// Save upserts the document in one transaction, retrying while the database is busy.
func (s *Store) Save(ctx context.Context, sessions persistence.Sessions) error {
	body, err := persistence.EncodeDocument(sessions)
	if err != nil {
		return err
	}

	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO booking_documents (id, body, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
				documentID,
				string(body),
				time.Now().UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("sqlite: save booking document: %w", err)
			}
			return nil
		})
	})
}
