// Package cache provides stage caching for the commitcanvas pipeline.
//
// Parsed graphs, computed layouts, and rendered artifacts are cached by
// content-derived keys so repeat runs over an unchanged history are cheap.
// Three backends implement the [Cache] interface:
//
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: Redis-backed, for server deployments
//   - [NullCache]: no-op, for tests and --no-cache runs
//
// Keys are produced by a [Keyer] so all entry points agree on the key
// scheme; see [DefaultKeyer].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys with optional TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// GraphKey identifies a parsed graph by repo and ref.
	GraphKey(repo, ref string) string

	// LayoutKey identifies a computed layout by the content hash of the
	// graph it was computed from.
	LayoutKey(graphHash string) string

	// ArtifactKey identifies a rendered artifact by layout hash and format.
	ArtifactKey(layoutHash, format string) string
}

// DefaultKeyer implements the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// GraphKey generates a key for graph caching.
func (k *DefaultKeyer) GraphKey(repo, ref string) string {
	return hashKey("graph", repo, ref)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string) string {
	return hashKey("layout", graphHash)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash, format string) string {
	return hashKey("artifact", layoutHash, format)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation, e.g.
// per-user namespaces on a shared Redis.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(repo, ref string) string {
	return k.prefix + k.inner.GraphKey(repo, ref)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string) string {
	return k.prefix + k.inner.LayoutKey(graphHash)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, format)
}
