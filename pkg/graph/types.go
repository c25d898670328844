package graph

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/commitcanvas/pkg/core/commitgraph"
	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/gitlog"
)

// Graph is the canonical serialization format for commit history graphs.
// Used for API responses, storage, caching, and cross-tool compatibility.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one serialized commit.
type Node struct {
	Hash     string    `json:"hash" bson:"hash"`
	Score    int64     `json:"score" bson:"score"`
	Relative bool      `json:"relative,omitempty" bson:"relative,omitempty"`
	Head     bool      `json:"head,omitempty" bson:"head,omitempty"`
	Author   string    `json:"author,omitempty" bson:"author,omitempty"`
	Email    string    `json:"email,omitempty" bson:"email,omitempty"`
	When     time.Time `json:"when,omitempty" bson:"when,omitempty"`
	Subject  string    `json:"subject,omitempty" bson:"subject,omitempty"`
	Refs     []string  `json:"refs,omitempty" bson:"refs,omitempty"`
}

// Edge is one serialized parent link, child → parent.
type Edge struct {
	Child  string `json:"child" bson:"child"`
	Parent string `json:"parent" bson:"parent"`
}

// FromHistory converts a loaded history to its serialization format.
// Nodes are ordered by descending score and then hash; edges follow the node
// order. Commit metadata is taken from the attached payload when present.
func FromHistory(hist *gitlog.History) Graph {
	nodes := hist.Nodes()
	slices.SortFunc(nodes, func(a, b *commitgraph.Node) int {
		if a.Score() != b.Score() {
			if a.Score() > b.Score() {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.ID()), string(b.ID()))
	})

	head := hist.Head()
	out := Graph{Nodes: make([]Node, len(nodes))}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromHistory(n, n == head)
		for _, seg := range n.StartSegments() {
			out.Edges = append(out.Edges, Edge{
				Child:  string(seg.Child.ID()),
				Parent: string(seg.Parent.ID()),
			})
		}
	}
	return out
}

// ToHistory rebuilds an in-memory history from its wire format.
// Stored scores are preserved exactly; the function fails with
// ErrCodeGraphCorrupt when the input violates the ordering invariant, and
// with ErrCodeInvalidFormat when an edge references a missing node.
func ToHistory(g Graph) (*gitlog.History, error) {
	hist := gitlog.NewHistory()

	for _, nj := range g.Nodes {
		if nj.Hash == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "node with empty hash")
		}
		n := hist.Resolve(commitgraph.Hash(nj.Hash))
		n.OverrideScore(nj.Score)
		hist.Observe(nj.Score)
		n.ApplyFlags(nj.Relative)
		n.SetPayload(&gitlog.Commit{
			Hash:    commitgraph.Hash(nj.Hash),
			Author:  nj.Author,
			Email:   nj.Email,
			When:    nj.When,
			Subject: nj.Subject,
			Refs:    nj.Refs,
		})
		if nj.Head {
			hist.SetHead(n)
		}
	}

	for _, ej := range g.Edges {
		child := hist.Node(commitgraph.Hash(ej.Child))
		parent := hist.Node(commitgraph.Hash(ej.Parent))
		if child == nil || parent == nil {
			return nil, apperrors.New(apperrors.ErrCodeInvalidFormat,
				"edge %s→%s references a missing node", ej.Child, ej.Parent)
		}
		if parent.Score() <= child.Score() {
			return nil, apperrors.New(apperrors.ErrCodeGraphCorrupt,
				"stored edge %s→%s violates score ordering (%d <= %d)",
				ej.Child, ej.Parent, parent.Score(), child.Score())
		}
		// The parent already outranks the child, so linking is a score
		// no-op and the stored layering survives the round trip.
		child.AddParent(parent, child.Score()+1)
	}

	return hist, nil
}

func nodeFromHistory(n *commitgraph.Node, head bool) Node {
	out := Node{
		Hash:     string(n.ID()),
		Score:    n.Score(),
		Relative: n.IsRelative(),
		Head:     head,
	}
	if c, ok := n.Payload().(*gitlog.Commit); ok && c != nil {
		out.Author = c.Author
		out.Email = c.Email
		out.When = c.When
		out.Subject = c.Subject
		out.Refs = c.Refs
	}
	return out
}
