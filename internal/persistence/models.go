package persistence

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ChannelMessage references the chat message that announced a session so the
// transport can update it in place. The core stores it verbatim.
type ChannelMessage struct {
	ConversationID string `json:"conversationId"`
	ServiceURL     string `json:"serviceUrl"`
	ActivityID     string `json:"activityId"`
}

// SessionState is one scheduled occurrence with its capacity and bookings.
type SessionState struct {
	SessionID      string          `json:"sessionId"`
	Capacity       int             `json:"capacity"`
	BookedUserIDs  []string        `json:"bookedUserIds"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ChannelMessage *ChannelMessage `json:"channelMessage,omitempty"`
}

// HasUser reports whether userID holds a booking.
func (s SessionState) HasUser(userID string) bool {
	return slices.Contains(s.BookedUserIDs, userID)
}

// Remaining returns the number of free slots, never negative.
func (s SessionState) Remaining() int {
	return max(s.Capacity-len(s.BookedUserIDs), 0)
}

// Full reports whether no slot is left.
func (s SessionState) Full() bool {
	return len(s.BookedUserIDs) >= s.Capacity
}

// Clone returns a deep copy so callers never share the booked user slice.
func (s SessionState) Clone() SessionState {
	out := s
	out.BookedUserIDs = append(make([]string, 0, len(s.BookedUserIDs)), s.BookedUserIDs...)
	if s.ChannelMessage != nil {
		msg := *s.ChannelMessage
		out.ChannelMessage = &msg
	}
	return out
}

// Sessions maps session ids to their state.
type Sessions map[string]SessionState

// Clone deep-copies the map and every session in it.
func (s Sessions) Clone() Sessions {
	out := make(Sessions, len(s))
	for id, state := range s {
		out[id] = state.Clone()
	}
	return out
}

// Document is the persisted booking document.
type Document struct {
	Sessions Sessions `json:"sessions"`
}

// DecodeDocument parses a booking document. Empty input decodes to an empty
// map, and repeated user ids within a session collapse to one booking.
func DecodeDocument(data []byte) (Sessions, error) {
	if len(data) == 0 {
		return Sessions{}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc.Sessions == nil {
		return Sessions{}, nil
	}
	for id, state := range doc.Sessions {
		state.BookedUserIDs = uniqueUsers(state.BookedUserIDs)
		if state.SessionID == "" {
			state.SessionID = id
		}
		doc.Sessions[id] = state
	}
	return doc.Sessions, nil
}

// uniqueUsers drops repeated ids, keeping the first occurrence of each so
// booking order survives. A user holds at most one booking per session.
func uniqueUsers(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// EncodeDocument renders sessions as an indented booking document.
func EncodeDocument(sessions Sessions) ([]byte, error) {
	doc := Document{Sessions: make(Sessions, len(sessions))}
	for id, state := range sessions {
		state = state.Clone()
		state.UpdatedAt = state.UpdatedAt.UTC()
		doc.Sessions[id] = state
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persistence: encode booking document: %w", err)
	}
	return data, nil
}
