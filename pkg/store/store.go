// Package store is the persistent key-value layer shared by every habitdash
// surface. Values are JSON documents addressed by string keys.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("store: key not found")
	// ErrUnavailable wraps failures of the underlying medium.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrMalformed is returned by Get when the stored value does not decode
	// into the requested shape.
	ErrMalformed = errors.New("store: malformed record")
)

// Keys used by habitdash. Each owner reads and writes only its own keys, with
// the exception of KeyLedger which is written solely through the ledger engine.
const (
	KeyLedger            = "habitdash.ledger"
	KeyHabits            = "habitdash.habits"
	KeyTimer             = "habitdash.timer"
	KeyStreak            = "habitdash.streak"
	KeyLastCompletedDate = "habitdash.lastCompletedDate"
	KeyLastActiveDate    = "habitdash.lastActiveDate"

	KeyLegacyHabits = "legacy.habits"
	// PrefixLegacyDay is followed by a locale formatted date label.
	PrefixLegacyDay = "legacy.day."
)

// Store defines the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get decodes the value stored at key into v.
	Get(ctx context.Context, key string, v any) error
	// Set encodes v and stores it at key, replacing any previous value.
	Set(ctx context.Context, key string, v any) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Clear deletes every key.
	Clear(ctx context.Context) error
	// Keys lists the keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Watcher is implemented by stores that can report writes made by other
// processes sharing the same medium.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
