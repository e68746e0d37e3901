package persistence

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeDocument(t *testing.T) {
	t.Parallel()

	t.Run("fills missing ids and booking slices", func(t *testing.T) {
		t.Parallel()

		sessions, err := DecodeDocument([]byte(`{"sessions": {"s1": {"capacity": 2, "updatedAt": "2024-03-04T07:00:00Z"}}}`))
		if err != nil {
			t.Fatalf("DecodeDocument returned error: %v", err)
		}
		got := sessions["s1"]
		if got.SessionID != "s1" {
			t.Fatalf("expected session id from map key, got %q", got.SessionID)
		}
		if got.BookedUserIDs == nil {
			t.Fatalf("expected non-nil booked users")
		}
	})

	t.Run("collapses repeated bookings", func(t *testing.T) {
		t.Parallel()

		sessions, err := DecodeDocument([]byte(`{"sessions": {"s1": {"sessionId": "s1", "capacity": 3, "bookedUserIds": ["b", "a", "b", "c", "a"]}}}`))
		if err != nil {
			t.Fatalf("DecodeDocument returned error: %v", err)
		}
		got := sessions["s1"].BookedUserIDs
		if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
			t.Fatalf("expected [b a c], got %v", got)
		}
	})

	t.Run("empty input is an empty map", func(t *testing.T) {
		t.Parallel()

		sessions, err := DecodeDocument(nil)
		if err != nil || sessions == nil || len(sessions) != 0 {
			t.Fatalf("expected empty map, got %#v (err=%v)", sessions, err)
		}
	})

	t.Run("garbage is reported as corrupt", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeDocument([]byte(`["sessions"]`)); !errors.Is(err, ErrCorruptDocument) {
			t.Fatalf("expected ErrCorruptDocument, got %v", err)
		}
	})
}

func TestSessionState_Clone(t *testing.T) {
	t.Parallel()

	original := SessionState{
		SessionID:      "s1",
		Capacity:       2,
		BookedUserIDs:  []string{"a"},
		UpdatedAt:      time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		ChannelMessage: &ChannelMessage{ActivityID: "act"},
	}
	clone := original.Clone()
	clone.BookedUserIDs[0] = "z"
	clone.ChannelMessage.ActivityID = "changed"

	if original.BookedUserIDs[0] != "a" {
		t.Fatalf("clone shares booked users with original")
	}
	if original.ChannelMessage.ActivityID != "act" {
		t.Fatalf("clone shares channel message with original")
	}
}

func TestSessionState_Capacity(t *testing.T) {
	t.Parallel()

	state := SessionState{Capacity: 2, BookedUserIDs: []string{"a"}}
	if state.Full() || state.Remaining() != 1 || !state.HasUser("a") || state.HasUser("b") {
		t.Fatalf("unexpected capacity helpers for %#v", state)
	}

	state.BookedUserIDs = append(state.BookedUserIDs, "b", "c")
	if !state.Full() || state.Remaining() != 0 {
		t.Fatalf("expected overfull session to report full with zero remaining")
	}
}
