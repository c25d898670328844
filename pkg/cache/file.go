package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores entries as JSON files under a root directory, one file per
// key. The CLI uses it to keep parsed graphs and rendered artifacts between
// runs; rendered SVG/PNG payloads are the common case, so entries are sharded
// to keep directories small.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
// Entries are private to the user.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk envelope around a cached payload.
type fileEntry struct {
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Get returns the payload for key. Expired and undecodable entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Set writes the payload for key. A zero ttl stores the entry without
// expiration.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Payload: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Delete removes the entry for key, if present.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; entries persist for the next run.
func (c *FileCache) Close() error {
	return nil
}

// path maps a key to its file. Keyer keys carry a stage prefix
// ("graph:<hex>", "artifact:<hex>"), which becomes a subdirectory so stages
// stay inspectable side by side; the hashed remainder is sharded by its
// first two hex characters.
func (c *FileCache) path(key string) string {
	stage, _, ok := strings.Cut(key, ":")
	if !ok {
		stage = "misc"
	}
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, stage, sum[:2], sum[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
