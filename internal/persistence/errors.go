package persistence

import "errors"

var (
	// ErrCorruptDocument is returned by DecodeDocument when the stored bytes are not a booking document.
	// Stores absorb it on Load and report an empty map instead.
	ErrCorruptDocument = errors.New("persistence: corrupt booking document")
)
