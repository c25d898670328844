package cache

import (
	"context"
	"time"
)

// NullCache discards every write and misses every read. It backs --no-cache
// runs and tests, so the pipeline never has to branch on whether caching is
// enabled.
type NullCache struct{}

// NewNullCache creates a cache that stores nothing.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
