package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/commitcanvas/pkg/graph"
)

// MemoryStore keeps records in a map. It is the default backend when no
// MongoDB URI is configured and the fixture backend for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]*Record
}

type recordKey struct {
	repo string
	ref  string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]*Record)}
}

// Save upserts the graph for (repo, ref).
func (s *MemoryStore) Save(ctx context.Context, repo, ref string, g *graph.Graph) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := recordKey{repo: repo, ref: ref}

	rec, ok := s.records[key]
	if !ok {
		rec = &Record{ID: newID(), Repo: repo, Ref: ref, CreatedAt: now}
		s.records[key] = rec
	}
	rec.Graph = g
	rec.UpdatedAt = now

	out := *rec
	return &out, nil
}

// Get returns the record for (repo, ref).
func (s *MemoryStore) Get(ctx context.Context, repo, ref string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{repo: repo, ref: ref}]
	if !ok {
		return nil, notFound(repo, ref)
	}
	out := *rec
	return &out, nil
}

// List returns all records for a repo, newest first.
func (s *MemoryStore) List(ctx context.Context, repo string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for key, rec := range s.records {
		if key.repo != repo {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Ref < out[j].Ref
	})
	return out, nil
}

// Delete removes the record for (repo, ref).
func (s *MemoryStore) Delete(ctx context.Context, repo, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordKey{repo: repo, ref: ref})
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
