package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ActionKind is the tag of an inbound booking action.
type ActionKind string

const (
	ActionBook   ActionKind = "book"
	ActionCancel ActionKind = "cancel"
)

// Action is a user request to join or leave a session, as posted by the chat
// collaborator.
type Action struct {
	Kind      ActionKind `json:"action"`
	SessionID string     `json:"sessionId"`
	Capacity  int        `json:"capacity"`
}

type actionPayload struct {
	Action    *string `json:"action"`
	SessionID *string `json:"sessionId"`
	Capacity  *int    `json:"capacity"`
}

// ParseAction decodes {"action","sessionId","capacity"}. Unknown fields,
// missing fields, trailing data and invalid values are all rejected with
// ErrInvalidAction.
func ParseAction(data []byte) (Action, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var payload actionPayload
	if err := decoder.Decode(&payload); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Action{}, fmt.Errorf("%w: unexpected data after action", ErrInvalidAction)
	}

	switch {
	case payload.Action == nil:
		return Action{}, fmt.Errorf("%w: action is required", ErrInvalidAction)
	case payload.SessionID == nil:
		return Action{}, fmt.Errorf("%w: sessionId is required", ErrInvalidAction)
	case payload.Capacity == nil:
		return Action{}, fmt.Errorf("%w: capacity is required", ErrInvalidAction)
	}

	action := Action{
		Kind:      ActionKind(*payload.Action),
		SessionID: *payload.SessionID,
		Capacity:  *payload.Capacity,
	}
	if err := action.Validate(); err != nil {
		return Action{}, err
	}
	return action, nil
}

// Validate checks the tag and the session parameters of the action.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionBook, ActionCancel:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Kind)
	}
	if strings.TrimSpace(a.SessionID) == "" {
		return fmt.Errorf("%w: sessionId must not be empty", ErrInvalidAction)
	}
	if a.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidAction)
	}
	return nil
}
