package cache

import (
	"context"
	"time"
)

// Store is the backend a cache helper writes through. Implementations
// absorb backend failures on reads: a broken backend looks like a miss,
// never an error surfaced to the caller.
type Store interface {
	// Get returns the value for key and whether it was present and fresh.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key for ttl. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes a single key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMatching removes all keys matching a glob pattern and
	// returns how many were removed.
	DeleteMatching(ctx context.Context, pattern string) (int, error)

	// Close releases backend resources.
	Close() error
}

// NoopStore ignores writes and always misses. Used when caching is disabled.
type NoopStore struct{}

func (NoopStore) Get(ctx context.Context, key string) (string, bool) { return "", false }

func (NoopStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

func (NoopStore) Delete(ctx context.Context, key string) error { return nil }

func (NoopStore) DeleteMatching(ctx context.Context, pattern string) (int, error) { return 0, nil }

func (NoopStore) Close() error { return nil }
