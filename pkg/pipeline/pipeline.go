// Package pipeline orchestrates the full commitcanvas flow: parse a git log
// stream into a history, compute a layout, and render an artifact. Rendered
// artifacts are cached by content hash so repeat runs over an unchanged
// history skip Graphviz entirely.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/commitcanvas/pkg/cache"
	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/gitlog"
	"github.com/matzehuels/commitcanvas/pkg/graph"
	"github.com/matzehuels/commitcanvas/pkg/layout"
	"github.com/matzehuels/commitcanvas/pkg/render/nodelink"
)

// Format selects the render output.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Options configures a pipeline run.
type Options struct {
	// Repo names the repository, used for cache keys and storage.
	Repo string

	// Ref names the ref the log was produced from.
	Ref string

	// Format selects the artifact type. Defaults to SVG.
	Format Format

	// Detailed includes scores and subjects in node labels.
	Detailed bool

	// Workers is the history linking concurrency. Defaults to
	// gitlog.DefaultWorkers.
	Workers int

	// TTL bounds cache entry lifetime. Zero means no expiration.
	TTL time.Duration

	// Logger receives progress output. Defaults to the standard logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if err := apperrors.ValidateRepoName(o.Repo); err != nil {
		return err
	}
	if o.Ref != "" {
		if err := apperrors.ValidateRef(o.Ref); err != nil {
			return err
		}
	} else {
		o.Ref = "HEAD"
	}
	switch o.Format {
	case FormatDOT, FormatSVG, FormatPNG:
	case "":
		o.Format = FormatSVG
	default:
		return apperrors.New(apperrors.ErrCodeUnsupported, "unknown format: %s", o.Format)
	}
	if o.Workers <= 0 {
		o.Workers = gitlog.DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Commits  int           `json:"commits"`
	Edges    int           `json:"edges"`
	Rows     int           `json:"rows"`
	Lanes    int           `json:"lanes"`
	Duration time.Duration `json:"duration"`
}

// CacheInfo reports cache behavior for a run.
type CacheInfo struct {
	// ArtifactHit reports whether the rendered artifact came from cache.
	ArtifactHit bool `json:"artifact_hit"`
}

// Result holds everything a run produced.
type Result struct {
	// Graph is the serialized history, suitable for storage.
	Graph graph.Graph

	// DOT is the Graphviz source for the layout.
	DOT string

	// Artifact is the rendered output in the requested format. For
	// FormatDOT it is the DOT source itself.
	Artifact []byte

	Stats Stats
	Cache CacheInfo
}

// Runner executes pipeline runs against a cache backend.
type Runner struct {
	cache cache.Cache
	keys  cache.Keyer
}

// NewRunner creates a runner. A nil Cache disables caching.
func NewRunner(c cache.Cache, keys cache.Keyer) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keys == nil {
		keys = cache.NewDefaultKeyer()
	}
	return &Runner{cache: c, keys: keys}
}

// Run parses a git log stream and renders it.
//
// The stream must use gitlog.PrettyFormat records, newest first. The parsed
// graph is cached under the repo/ref key so the server can serve it without
// re-ingesting, and the artifact is cached by content hash.
func (r *Runner) Run(ctx context.Context, in io.Reader, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	loader := gitlog.NewLoader(gitlog.Options{Workers: opts.Workers, Logger: opts.Logger})
	hist, err := loader.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("history loaded", "repo", opts.Repo, "commits", hist.Len())

	g := graph.FromHistory(hist)
	if data, err := graph.MarshalGraph(hist); err == nil {
		key := r.keys.GraphKey(opts.Repo, opts.Ref)
		if err := r.cache.Set(ctx, key, data, opts.TTL); err != nil {
			opts.Logger.Warn("graph cache write failed", "err", err)
		}
	}

	return r.finish(ctx, hist, g, opts, start)
}

// Render lays out and renders an already-parsed graph, e.g. one loaded from
// storage.
func (r *Runner) Render(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	hist, err := graph.ToHistory(g)
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, hist, g, opts, start)
}

// CachedGraph returns the cached serialized graph for (repo, ref), if any.
func (r *Runner) CachedGraph(ctx context.Context, repo, ref string) (*graph.Graph, bool, error) {
	data, ok, err := r.cache.Get(ctx, r.keys.GraphKey(repo, ref))
	if err != nil || !ok {
		return nil, false, err
	}
	g, err := graph.UnmarshalGraph(data)
	if err != nil {
		// Poisoned entry. Drop it and report a miss.
		_ = r.cache.Delete(ctx, r.keys.GraphKey(repo, ref))
		return nil, false, nil
	}
	return &g, true, nil
}

func (r *Runner) finish(ctx context.Context, hist *gitlog.History, g graph.Graph, opts Options, start time.Time) (*Result, error) {
	l := layout.Compute(hist)
	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})

	res := &Result{
		Graph: g,
		DOT:   dot,
		Stats: Stats{
			Commits: hist.Len(),
			Edges:   len(g.Edges),
			Rows:    l.Rows,
			Lanes:   l.Lanes,
		},
	}

	artifact, hit, err := r.renderArtifact(ctx, dot, opts)
	if err != nil {
		return nil, err
	}
	res.Artifact = artifact
	res.Cache.ArtifactHit = hit
	res.Stats.Duration = time.Since(start)

	opts.Logger.Debug("pipeline finished",
		"repo", opts.Repo,
		"format", opts.Format,
		"cached", hit,
		"duration", res.Stats.Duration)
	return res, nil
}

func (r *Runner) renderArtifact(ctx context.Context, dot string, opts Options) ([]byte, bool, error) {
	if opts.Format == FormatDOT {
		return []byte(dot), false, nil
	}

	// The DOT source already reflects layout and label options, so its hash
	// is a complete artifact identity.
	key := r.keys.ArtifactKey(cache.Hash([]byte(dot)), string(opts.Format))
	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatSVG:
		data, err = nodelink.RenderSVG(dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(dot)
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeInternal, err, "render %s", opts.Format)
	}

	if err := r.cache.Set(ctx, key, data, opts.TTL); err != nil {
		opts.Logger.Warn("artifact cache write failed", "err", err)
	}
	return data, false, nil
}
