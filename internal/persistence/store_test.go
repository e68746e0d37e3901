package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/activity-booking/internal/persistence"
	"github.com/example/activity-booking/internal/persistence/memory"
	"github.com/example/activity-booking/internal/testfixtures"
)

func storeImplementations(t *testing.T) map[string]persistence.SessionStore {
	t.Helper()

	return map[string]persistence.SessionStore{
		"memory":   memory.New(nil),
		"jsonfile": testfixtures.NewJSONFileStore(t),
		"sqlite":   testfixtures.NewSQLiteStore(t),
	}
}

func TestSessionStoreContract(t *testing.T) {
	t.Parallel()

	for name, store := range storeImplementations(t) {
		name, store := name, store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			initial, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load on fresh store returned error: %v", err)
			}
			if len(initial) != 0 {
				t.Fatalf("expected fresh store to be empty, got %d sessions", len(initial))
			}

			updated := time.Date(2024, time.March, 4, 7, 0, 0, 0, time.UTC)
			initial["s1"] = persistence.SessionState{SessionID: "s1", Capacity: 2, BookedUserIDs: []string{"a"}, UpdatedAt: updated}
			if err := store.Save(ctx, initial); err != nil {
				t.Fatalf("Save returned error: %v", err)
			}

			// Mutating the caller's copy after Save must not leak into the store.
			initial["s1"].BookedUserIDs[0] = "mutated"

			loaded, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			got := loaded["s1"]
			if got.Capacity != 2 || len(got.BookedUserIDs) != 1 || got.BookedUserIDs[0] != "a" {
				t.Fatalf("unexpected stored session: %#v", got)
			}
			if !got.UpdatedAt.Equal(updated) {
				t.Fatalf("expected updatedAt %s, got %s", updated, got.UpdatedAt)
			}

			// Save replaces the whole map.
			if err := store.Save(ctx, persistence.Sessions{}); err != nil {
				t.Fatalf("Save of empty map returned error: %v", err)
			}
			cleared, err := store.Load(ctx)
			if err != nil || len(cleared) != 0 {
				t.Fatalf("expected empty map after saving empty map, got %#v (err=%v)", cleared, err)
			}
		})
	}
}
