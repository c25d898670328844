package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/commitcanvas/pkg/cache"
	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
)

func quietOpts(repo string, format Format) Options {
	return Options{
		Repo:   repo,
		Format: format,
		Logger: log.New(io.Discard),
	}
}

// linearLog produces n commits, newest first, HEAD on the newest.
func linearLog(n int) string {
	var sb strings.Builder
	for i := n - 1; i >= 0; i-- {
		refs := ""
		if i == n-1 {
			refs = "HEAD -> main"
		}
		parent := ""
		if i > 0 {
			parent = fmt.Sprintf("c%d", i-1)
		}
		fmt.Fprintf(&sb, "c%d\x1f%s\x1fAnn\x1fann@example.com\x1f%d\x1fcommit %d\x1f%s\n",
			i, parent, 1700000000+i, i, refs)
	}
	return sb.String()
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode apperrors.Code
	}{
		{name: "Valid", opts: Options{Repo: "myrepo"}},
		{name: "EmptyRepo", opts: Options{}, wantCode: apperrors.ErrCodeInvalidRepo},
		{name: "TraversalRepo", opts: Options{Repo: "../etc"}, wantCode: apperrors.ErrCodeInvalidRepo},
		{name: "BadRef", opts: Options{Repo: "myrepo", Ref: "bad..ref"}, wantCode: apperrors.ErrCodeInvalidInput},
		{name: "BadFormat", opts: Options{Repo: "myrepo", Format: "pdf"}, wantCode: apperrors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateAndSetDefaults: %v", err)
				}
				if tt.opts.Format != FormatSVG || tt.opts.Ref != "HEAD" || tt.opts.Workers <= 0 {
					t.Errorf("defaults not applied: %+v", tt.opts)
				}
				return
			}
			if apperrors.GetCode(err) != tt.wantCode {
				t.Errorf("code = %v, want %v", apperrors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestRunProducesDOT(t *testing.T) {
	r := NewRunner(nil, nil)

	res, err := r.Run(context.Background(), strings.NewReader(linearLog(5)), quietOpts("myrepo", FormatDOT))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Stats.Commits != 5 {
		t.Errorf("Commits = %d, want 5", res.Stats.Commits)
	}
	if res.Stats.Edges != 4 {
		t.Errorf("Edges = %d, want 4", res.Stats.Edges)
	}
	if res.Stats.Rows != 5 || res.Stats.Lanes != 1 {
		t.Errorf("Rows/Lanes = %d/%d, want 5/1", res.Stats.Rows, res.Stats.Lanes)
	}
	if !strings.HasPrefix(res.DOT, "digraph history {") {
		t.Errorf("DOT does not open a digraph: %q", res.DOT[:30])
	}
	if string(res.Artifact) != res.DOT {
		t.Error("DOT artifact differs from DOT source")
	}
	if res.Cache.ArtifactHit {
		t.Error("DOT output should never report a cache hit")
	}
	if len(res.Graph.Nodes) != 5 {
		t.Errorf("Graph.Nodes = %d, want 5", len(res.Graph.Nodes))
	}
}

func TestRunCachesGraph(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil)
	ctx := context.Background()

	if _, _, err := r.CachedGraph(ctx, "myrepo", "HEAD"); err != nil {
		t.Fatalf("CachedGraph (empty): %v", err)
	}

	if _, err := r.Run(ctx, strings.NewReader(linearLog(3)), quietOpts("myrepo", FormatDOT)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	g, ok, err := r.CachedGraph(ctx, "myrepo", "HEAD")
	if err != nil || !ok {
		t.Fatalf("CachedGraph = ok=%v err=%v, want hit", ok, err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("cached graph has %d nodes, want 3", len(g.Nodes))
	}

	if _, ok, _ := r.CachedGraph(ctx, "myrepo", "other"); ok {
		t.Error("CachedGraph hit for a ref that was never run")
	}
}

func TestCachedGraphDropsPoisonedEntry(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil)
	ctx := context.Background()

	key := cache.NewDefaultKeyer().GraphKey("myrepo", "HEAD")
	if err := c.Set(ctx, key, []byte("{not json"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, err := r.CachedGraph(ctx, "myrepo", "HEAD"); err != nil || ok {
		t.Errorf("CachedGraph(poisoned) = ok=%v err=%v, want clean miss", ok, err)
	}
	if _, found, _ := c.Get(ctx, key); found {
		t.Error("poisoned entry was not evicted")
	}
}

func TestRunMalformedStream(t *testing.T) {
	r := NewRunner(nil, nil)

	_, err := r.Run(context.Background(), strings.NewReader("not a log record\n"), quietOpts("myrepo", FormatDOT))
	if err == nil {
		t.Fatal("Run(malformed) returned nil error")
	}
}

func TestRenderFromGraph(t *testing.T) {
	r := NewRunner(nil, nil)
	ctx := context.Background()

	first, err := r.Run(ctx, strings.NewReader(linearLog(4)), quietOpts("myrepo", FormatDOT))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	second, err := r.Render(ctx, first.Graph, quietOpts("myrepo", FormatDOT))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if second.DOT != first.DOT {
		t.Error("rendering the stored graph changed the DOT output")
	}
	if second.Stats.Commits != first.Stats.Commits {
		t.Errorf("Commits = %d, want %d", second.Stats.Commits, first.Stats.Commits)
	}
}
