package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or already expired.
var ErrNotFound = errors.New("kv: key not found")

// MinTTL is the shortest expiration the backing store accepts. Callers that
// compute an expiration below this floor must clamp it to now+MinTTL before
// calling Put.
const MinTTL = 60 * time.Second

// Store is the external key-value capability shared by the session store and
// the rate limiter. Every call is a single atomic round trip; the store
// guarantees per-key linearizability, so no in-process locking is layered on
// top of it.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put stores value under key, overwriting any previous value, and
	// schedules removal at expireAt.
	Put(ctx context.Context, key, value string, expireAt time.Time) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
