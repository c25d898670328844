package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a "stage:<hex>" cache key from the identifying parts of a
// pipeline stage, e.g. ("graph", repo, ref). Parts are JSON-encoded before
// hashing so ("a", "bc") and ("ab", "c") cannot collide, and the full
// SHA-256 digest is kept to rule out collisions across repositories.
func hashKey(stage string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return stage + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 digest of data. Rendered artifacts are keyed
// by the digest of their DOT source, so identical layouts share one cache
// entry regardless of which repo or ref produced them.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
