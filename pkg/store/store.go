// Package store persists serialized commit graphs keyed by repository and
// ref. It backs the server API so browsers can fetch previously ingested
// histories without re-running git.
//
// Two implementations are provided: [MongoStore] for deployments and
// [MemoryStore] for tests and single-process usage.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/graph"
)

// Record is a stored graph together with its identity and timestamps.
type Record struct {
	// ID is assigned on first save and stable across updates.
	ID string `json:"id" bson:"_id"`

	// Repo is the repository name the graph was ingested for.
	Repo string `json:"repo" bson:"repo"`

	// Ref is the ref the history was walked from.
	Ref string `json:"ref" bson:"ref"`

	// Graph is the serialized history.
	Graph *graph.Graph `json:"graph" bson:"graph"`

	// CreatedAt is set on first save.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// UpdatedAt is set on every save.
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store persists graph records. Implementations must be safe for concurrent
// use.
type Store interface {
	// Save upserts the graph for (repo, ref) and returns the stored record.
	Save(ctx context.Context, repo, ref string, g *graph.Graph) (*Record, error)

	// Get returns the record for (repo, ref), or an error with code
	// ErrCodeGraphNotFound when none exists.
	Get(ctx context.Context, repo, ref string) (*Record, error)

	// List returns all records for a repo, newest first.
	List(ctx context.Context, repo string) ([]*Record, error)

	// Delete removes the record for (repo, ref). Deleting a missing record
	// is not an error.
	Delete(ctx context.Context, repo, ref string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// newID returns a fresh record identifier.
func newID() string { return uuid.NewString() }

// notFound builds the standard missing-record error.
func notFound(repo, ref string) error {
	return apperrors.New(apperrors.ErrCodeGraphNotFound,
		"no graph stored for %s@%s", repo, ref)
}
