// Package layout converts a scored commit graph into grid positions.
//
// The core graph guarantees that every parent's score strictly exceeds each
// of its children's, so descending score order is already a valid topological
// layering. This package compresses the sparse score space into consecutive
// rows (newest commits on row 0, deeper history below), assigns each commit
// a lane within its row, and resolves the graph's edge segments into
// drawable row/lane pairs for the renderers.
package layout

import (
	"slices"
	"strings"

	"github.com/matzehuels/commitcanvas/pkg/core/commitgraph"
	"github.com/matzehuels/commitcanvas/pkg/gitlog"
)

// Placement is one commit positioned on the grid.
type Placement struct {
	Hash     commitgraph.Hash `json:"hash"`
	Row      int              `json:"row"`
	Lane     int              `json:"lane"`
	Score    int64            `json:"score"`
	Relative bool             `json:"relative,omitempty"`
	Head     bool             `json:"head,omitempty"`
	Subject  string           `json:"subject,omitempty"`
}

// EdgeLine is a drawable parent edge between two placements.
// The child end is where the segment starts; the parent end is where it
// runs to, always on a strictly larger row.
type EdgeLine struct {
	ChildRow   int `json:"child_row"`
	ChildLane  int `json:"child_lane"`
	ParentRow  int `json:"parent_row"`
	ParentLane int `json:"parent_lane"`
}

// Layout is the positioned commit graph.
type Layout struct {
	Rows   int                      `json:"rows"`
	Lanes  int                      `json:"lanes"`
	Nodes  []Placement              `json:"nodes"`
	Edges  []EdgeLine               `json:"edges"`
	ByHash map[commitgraph.Hash]int `json:"-"` // index into Nodes
}

// Compute lays out the history on a grid.
//
// Rows are compressed score ranks: the highest score (the deepest ancestor)
// gets the bottom row, the lowest (the newest commit) row zero. Commits
// sharing a score share a row and receive lanes in deterministic order
// (hash order). The result is stable for a given history.
func Compute(hist *gitlog.History) *Layout {
	nodes := hist.Nodes()

	// Distinct scores, ascending: rank 0 = smallest score = newest commit.
	scores := make([]int64, 0, len(nodes))
	seen := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n.Score()]; !ok {
			seen[n.Score()] = struct{}{}
			scores = append(scores, n.Score())
		}
	}
	slices.Sort(scores)
	rowOf := make(map[int64]int, len(scores))
	for i, s := range scores {
		rowOf[s] = i
	}

	slices.SortFunc(nodes, func(a, b *commitgraph.Node) int {
		if a.Score() != b.Score() {
			if a.Score() < b.Score() {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.ID()), string(b.ID()))
	})

	head := hist.Head()
	out := &Layout{
		Rows:   len(scores),
		ByHash: make(map[commitgraph.Hash]int, len(nodes)),
	}

	laneInRow := make(map[int]int)
	for _, n := range nodes {
		row := rowOf[n.Score()]
		lane := laneInRow[row]
		laneInRow[row]++
		if lane+1 > out.Lanes {
			out.Lanes = lane + 1
		}

		p := Placement{
			Hash:     n.ID(),
			Row:      row,
			Lane:     lane,
			Score:    n.Score(),
			Relative: n.IsRelative(),
			Head:     n == head,
		}
		if c, ok := n.Payload().(*gitlog.Commit); ok && c != nil {
			p.Subject = c.Subject
		}
		out.ByHash[n.ID()] = len(out.Nodes)
		out.Nodes = append(out.Nodes, p)
	}

	for _, n := range nodes {
		for _, seg := range n.StartSegments() {
			child := out.Nodes[out.ByHash[seg.Child.ID()]]
			parent := out.Nodes[out.ByHash[seg.Parent.ID()]]
			out.Edges = append(out.Edges, EdgeLine{
				ChildRow:   child.Row,
				ChildLane:  child.Lane,
				ParentRow:  parent.Row,
				ParentLane: parent.Lane,
			})
		}
	}

	return out
}
