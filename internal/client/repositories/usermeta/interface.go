package usermeta

import (
	"context"
	"time"
)

// Repository is an arbitrary key/value cache (last sync timestamp,
// dashboard stats and similar read-through values). It never participates
// in the operation queue.
type Repository interface {
	// Get returns the value for key, or nil if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or overwrites a value and stamps updated_at.
	Set(ctx context.Context, key string, value []byte) error

	// GetTime reads a value written by SetTime; the zero time on miss.
	GetTime(ctx context.Context, key string) (time.Time, error)

	// SetTime stores a timestamp value under key.
	SetTime(ctx context.Context, key string, t time.Time) error

	// Delete removes a key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error

	// List returns all entries.
	List(ctx context.Context) (map[string][]byte, error)

	// Clear wipes the collection.
	Clear(ctx context.Context) error
}
