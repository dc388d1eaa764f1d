// Package cache stores fetched index responses between runs.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for shared deployments of the HTTP API, and [NullCache] when caching is
// disabled. Keys are built by a [Keyer] so that each package index gets
// its own namespace.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A zero ttl stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear removes every entry from c if the backend supports it.
func Clear(ctx context.Context, c Cache) error {
	if cl, ok := c.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a cached HTTP response. Namespace
	// identifies the client (e.g. "simple:") and key the resource.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// IndexKeyer scopes keys to one package index, so that a project fetched
// from a private mirror never answers a lookup against PyPI.
func IndexKeyer(indexURL string) Keyer {
	return NewScopedKeyer(nil, hashKey("index", indexURL)[:len("index:")+16]+":")
}
