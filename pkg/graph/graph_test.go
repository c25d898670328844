package graph

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/gitlog"
)

// diamondHistory loads a four-commit merge history with HEAD on the merge.
func diamondHistory(t *testing.T) *gitlog.History {
	t.Helper()
	logStream := strings.Join([]string{
		"head\x1fleft right\x1fAnn\x1fann@example.com\x1f1700000400\x1fmerge\x1fHEAD -> main",
		"left\x1fbase\x1fAnn\x1fann@example.com\x1f1700000300\x1fleft work\x1f",
		"right\x1fbase\x1fBob\x1fbob@example.com\x1f1700000200\x1fright work\x1f",
		"base\x1f\x1fAnn\x1fann@example.com\x1f1700000100\x1finitial\x1f",
	}, "\n")
	loader := gitlog.NewLoader(gitlog.Options{Workers: 1, Logger: log.New(io.Discard)})
	hist, err := loader.Load(context.Background(), strings.NewReader(logStream))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return hist
}

func TestFromHistory(t *testing.T) {
	g := FromHistory(diamondHistory(t))

	if len(g.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(g.Nodes))
	}
	if len(g.Edges) != 4 {
		t.Fatalf("edges = %d, want 4", len(g.Edges))
	}

	// Descending score order puts the deepest ancestor first and the head
	// last.
	if g.Nodes[0].Hash != "base" {
		t.Errorf("first node = %s, want base", g.Nodes[0].Hash)
	}
	if last := g.Nodes[len(g.Nodes)-1]; last.Hash != "head" || !last.Head {
		t.Errorf("last node = %+v, want head with Head flag", last)
	}

	for _, n := range g.Nodes {
		if !n.Relative {
			t.Errorf("node %s not relative below merged HEAD", n.Hash)
		}
		if n.Author == "" || n.Subject == "" {
			t.Errorf("node %s missing payload metadata: %+v", n.Hash, n)
		}
	}
}

func TestMarshalDeterministic(t *testing.T) {
	hist := diamondHistory(t)
	a, err := MarshalGraph(hist)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}
	b, err := MarshalGraph(hist)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical histories marshalled to different bytes")
	}
}

func TestRoundTrip(t *testing.T) {
	hist := diamondHistory(t)
	data, err := MarshalGraph(hist)
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}

	rebuilt, err := ReadGraph(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadGraph() error = %v", err)
	}

	if rebuilt.Len() != hist.Len() {
		t.Fatalf("rebuilt Len() = %d, want %d", rebuilt.Len(), hist.Len())
	}
	if rebuilt.Head() == nil || rebuilt.Head().ID() != "head" {
		t.Errorf("rebuilt head = %v, want head", rebuilt.Head())
	}
	for _, n := range hist.Nodes() {
		r := rebuilt.Node(n.ID())
		if r == nil {
			t.Fatalf("node %s missing after round trip", n.ID())
		}
		if r.Score() != n.Score() {
			t.Errorf("node %s score = %d, want %d", n.ID(), r.Score(), n.Score())
		}
		if r.IsRelative() != n.IsRelative() {
			t.Errorf("node %s relative = %v, want %v", n.ID(), r.IsRelative(), n.IsRelative())
		}
		if len(r.Parents()) != len(n.Parents()) {
			t.Errorf("node %s parents = %d, want %d", n.ID(), len(r.Parents()), len(n.Parents()))
		}
	}
	if err := rebuilt.Verify(); err != nil {
		t.Errorf("rebuilt history fails verification: %v", err)
	}
}

func TestToHistoryValidation(t *testing.T) {
	tests := []struct {
		name     string
		g        Graph
		wantCode apperrors.Code
	}{
		{
			name:     "EmptyHash",
			g:        Graph{Nodes: []Node{{Hash: ""}}},
			wantCode: apperrors.ErrCodeInvalidFormat,
		},
		{
			name: "DanglingEdge",
			g: Graph{
				Nodes: []Node{{Hash: "a", Score: 1}},
				Edges: []Edge{{Child: "a", Parent: "ghost"}},
			},
			wantCode: apperrors.ErrCodeInvalidFormat,
		},
		{
			name: "OrderingViolated",
			g: Graph{
				Nodes: []Node{{Hash: "child", Score: 5}, {Hash: "parent", Score: 5}},
				Edges: []Edge{{Child: "child", Parent: "parent"}},
			},
			wantCode: apperrors.ErrCodeGraphCorrupt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToHistory(tt.g)
			if !apperrors.Is(err, tt.wantCode) {
				t.Errorf("ToHistory() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestGraphFileRoundTrip(t *testing.T) {
	hist := diamondHistory(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := WriteGraphFile(hist, path); err != nil {
		t.Fatalf("WriteGraphFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat written file: %v", err)
	}

	rebuilt, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile() error = %v", err)
	}
	if rebuilt.Len() != hist.Len() {
		t.Errorf("rebuilt Len() = %d, want %d", rebuilt.Len(), hist.Len())
	}
}

func TestReadGraphMalformed(t *testing.T) {
	if _, err := ReadGraph(strings.NewReader("{not json")); err == nil {
		t.Error("ReadGraph() succeeded on malformed JSON")
	}
}
