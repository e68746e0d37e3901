package testfixtures

import (
	"fmt"
	"sync"
)

// UserIDs produces deterministic opaque user identifiers for tests.
type UserIDs struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewUserIDs constructs a generator yielding identifiers with the given
// prefix. When prefix is empty, "user" is used.
func NewUserIDs(prefix string) *UserIDs {
	if prefix == "" {
		prefix = "user"
	}
	return &UserIDs{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *UserIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%03d", g.prefix, g.counter)
}

// Take returns the next n identifiers.
func (g *UserIDs) Take(n int) []string {
	ids := make([]string, 0, n)
	for range n {
		ids = append(ids, g.Next())
	}
	return ids
}
