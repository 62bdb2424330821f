// Package cache provides the byte-oriented cache used by the integration
// clients and the place intelligence layer.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for multi-instance servers
//   - [NullCache]: stores nothing, for tests and --no-cache runs
//
// Keys are produced by a [Keyer] so that every component derives the same
// key for the same request, and so that a server can scope keys with
// [NewScopedKeyer].
package cache

import (
	"context"
	"errors"
	"time"
)

// Default time-to-live values for the different kinds of cached data.
const (
	// TTLDescription applies to place descriptions from the text model.
	TTLDescription = 24 * time.Hour

	// TTLGeocode applies to forward and reverse geocoding responses.
	TTLGeocode = 7 * 24 * time.Hour

	// TTLStatic applies to rendered static map images.
	TTLStatic = time.Hour
)

// ErrClosed is returned by operations on a cache that has been closed.
var ErrClosed = errors.New("cache closed")

// Cache stores opaque byte values under string keys with an optional TTL.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
