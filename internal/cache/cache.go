package cache

import (
	"context"
	"time"
)

// Default cache configuration constants.
const (
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 5 * time.Minute

	// DefaultCleanupInterval is the default background sweep interval.
	DefaultCleanupInterval = time.Minute
)

// Cache is the interface for the TTL cache.
//
// After Close, every operation is a no-op returning the empty result
// rather than an error; late callers during shutdown must not fail.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss,
	// including the case of an entry whose TTL has passed.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value. Options override the default TTL and
	// prepend a key prefix.
	Set(ctx context.Context, key string, value interface{}, opts ...SetOption)

	// Has reports whether a live entry exists for key.
	Has(ctx context.Context, key string) bool

	// Delete removes an entry, reporting whether it existed.
	Delete(ctx context.Context, key string) bool

	// DeletePattern removes every entry whose key matches the glob
	// pattern ('*' matches any run of characters) and returns the
	// number deleted.
	DeletePattern(ctx context.Context, pattern string) int

	// Clear removes all entries.
	Clear(ctx context.Context)

	// TTL returns the remaining lifetime of an entry, or -1 when the
	// key is absent or expired.
	TTL(ctx context.Context, key string) time.Duration

	// Stats returns the current size and the number of live entries.
	Stats(ctx context.Context) Stats

	// Close stops the background sweep and disposes the cache.
	Close() error
}

// Stats contains cache statistics.
type Stats struct {
	// Size is the total number of stored entries, expired included.
	Size int

	// ValidKeys is the number of entries whose TTL has not passed.
	ValidKeys int
}

// SetOption configures a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl    time.Duration
	prefix string
}

// WithTTL overrides the default TTL for this entry.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = ttl
	}
}

// WithPrefix prepends "prefix:" to the key.
func WithPrefix(prefix string) SetOption {
	return func(o *setOptions) {
		o.prefix = prefix
	}
}

// entry is a stored value with its expiry deadline. Entries are owned
// by the cache map and never escape a Get/Set call.
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// expired reports whether the entry's TTL has passed at now.
func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}
