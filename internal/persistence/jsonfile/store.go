// Package jsonfile persists the booking document as a JSON file on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/activity-booking/internal/persistence"
)

// Store reads and writes the whole booking document at a single path.
type Store struct {
	path   string
	logger *slog.Logger
}

// Open returns a store for path. The file itself is created on first Save.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("jsonfile: storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: filepath.Clean(path), logger: logger.With("store", "jsonfile", "path", path)}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing, unreadable, or corrupt file yields an
// empty map; only context cancellation is reported as an error.
func (s *Store) Load(ctx context.Context) (persistence.Sessions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "booking document unreadable, starting empty", "error", err)
		}
		return persistence.Sessions{}, nil
	}

	sessions, err := persistence.DecodeDocument(data)
	if err != nil {
		s.logger.WarnContext(ctx, "booking document corrupt, starting empty", "error", err)
		return persistence.Sessions{}, nil
	}
	return sessions, nil
}

// Save writes the document through a temporary file and a rename, so readers
// observe either the previous or the new document in full.
func (s *Store) Save(ctx context.Context, sessions persistence.Sessions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := persistence.EncodeDocument(sessions)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("jsonfile: create directory: %w", err)
	}
	return atomicWriteFile(s.path, data, 0o644)
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bookings-*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("jsonfile: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("jsonfile: replace document: %w", err)
	}

	committed = true
	return nil
}
