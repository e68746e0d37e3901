package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/activity-booking/internal/persistence"
	"github.com/example/activity-booking/internal/persistence/jsonfile"
	"github.com/example/activity-booking/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite session store in a temporary
// directory. The store is closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(tb.TempDir(), "bookings.db"), nil)
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewJSONFileStore opens a file-backed session store in a temporary directory.
func NewJSONFileStore(tb testing.TB) *jsonfile.Store {
	tb.Helper()

	store, err := jsonfile.Open(filepath.Join(tb.TempDir(), "bookings.json"), nil)
	if err != nil {
		tb.Fatalf("failed to open jsonfile store: %v", err)
	}
	return store
}

// SessionOption configures a generated session state.
type SessionOption func(*persistence.SessionState)

// NewSessionState returns a session with capacity 2, no bookings and
// UpdatedAt set to ReferenceTime.
func NewSessionState(id string, opts ...SessionOption) persistence.SessionState {
	state := persistence.SessionState{
		SessionID:     id,
		Capacity:      2,
		BookedUserIDs: []string{},
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&state)
	}
	return state
}

// WithCapacity overrides the session capacity.
func WithCapacity(capacity int) SessionOption {
	return func(s *persistence.SessionState) {
		s.Capacity = capacity
	}
}

// WithBookedUsers sets the booked user list.
func WithBookedUsers(ids ...string) SessionOption {
	return func(s *persistence.SessionState) {
		s.BookedUserIDs = append([]string{}, ids...)
	}
}
