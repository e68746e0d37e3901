package persistence

import "context"

// SessionStore loads and saves the whole booking map in one piece.
//
// Load returns an empty map, not an error, when the backing data is missing
// or unparsable. Save is atomic per call. Implementations provide no locking
// or versioning; callers that need read-modify-write atomicity must serialize
// access themselves.
type SessionStore interface {
	Load(ctx context.Context) (Sessions, error)
	Save(ctx context.Context, sessions Sessions) error
}
