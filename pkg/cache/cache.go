// Package cache provides byte-oriented key/value caches with expiry.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory, used by the CLI
//   - [RedisCache]: a shared Redis instance, used by the HTTP server
//   - [NullCache]: stores nothing, used when caching is disabled
//
// Keys are produced by a [Keyer] so that every backend agrees on layout and
// different deployments can be isolated with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys.
//
// Get returns (nil, false, nil) on a miss; an error means the backend itself
// failed. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
