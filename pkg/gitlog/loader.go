package gitlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/commitcanvas/pkg/core/commitgraph"
	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
)

// DefaultWorkers is the number of goroutines linking records into the graph
// when Options.Workers is zero.
const DefaultWorkers = 4

// maxLineBytes bounds a single log line; subjects are truncated by git well
// below this, but merge records with many parents can get long.
const maxLineBytes = 1 << 20

// Options configures a Loader.
type Options struct {
	// Workers is the size of the linking worker pool. Defaults to
	// DefaultWorkers when zero.
	Workers int

	// Logger receives progress output. Defaults to log.Default when nil.
	Logger *log.Logger
}

// Loader builds a [History] from a log record stream.
type Loader struct {
	workers int
	logger  *log.Logger
}

// NewLoader creates a loader with the given options.
func NewLoader(opts Options) *Loader {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{workers: workers, logger: logger}
}

// History is the loaded commit graph: an arena of nodes addressed by hash,
// plus the running maximum score and the checked-out commit if one was seen.
type History struct {
	mu    sync.RWMutex
	nodes map[commitgraph.Hash]*commitgraph.Node

	arrival atomic.Int64 // next provisional score
	max     atomic.Int64 // highest score observed anywhere
	head    atomic.Pointer[commitgraph.Node]
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{nodes: make(map[commitgraph.Hash]*commitgraph.Node)}
}

// Resolve returns the node for hash, creating it with the next
// arrival-order provisional score on first sight. Safe for concurrent use.
func (h *History) Resolve(hash commitgraph.Hash) *commitgraph.Node {
	h.mu.RLock()
	n, ok := h.nodes[hash]
	h.mu.RUnlock()
	if ok {
		return n
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.nodes[hash]; ok {
		return n
	}
	score := h.arrival.Add(1) - 1
	n = commitgraph.New(hash, score)
	h.nodes[hash] = n
	h.Observe(score)
	return n
}

// Node returns the node for hash, or nil if the hash was never seen.
func (h *History) Node(hash commitgraph.Hash) *commitgraph.Node {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nodes[hash]
}

// Nodes returns a snapshot of all nodes. The order is not meaningful.
func (h *History) Nodes() []*commitgraph.Node {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*commitgraph.Node, 0, len(h.nodes))
	for _, n := range h.nodes {
		out = append(out, n)
	}
	return out
}

// Len returns the number of distinct commits seen.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// MaxScore returns the highest score observed anywhere in the graph.
func (h *History) MaxScore() int64 { return h.max.Load() }

// Head returns the checked-out commit's node, or nil if the stream carried
// no HEAD decoration.
func (h *History) Head() *commitgraph.Node { return h.head.Load() }

// SetHead records n as the checked-out commit's node.
func (h *History) SetHead(n *commitgraph.Node) { h.head.Store(n) }

// Observe raises the running maximum score to at least score.
func (h *History) Observe(score int64) {
	for {
		cur := h.max.Load()
		if score <= cur || h.max.CompareAndSwap(cur, score) {
			return
		}
	}
}

// link wires one record into the graph: payload attachment, one AddParent
// per distinct parent hash, HEAD marking.
func (h *History) link(c Commit) {
	n := h.Resolve(c.Hash)
	n.SetPayload(&c)

	if c.IsHead() {
		n.ApplyFlags(true)
		n.MakeRelative()
		h.SetHead(n)
	}

	seen := make(map[commitgraph.Hash]struct{}, len(c.Parents))
	for _, ph := range c.Parents {
		// Octopus merges may repeat a parent; the graph does not
		// deduplicate edges, so we must.
		if _, dup := seen[ph]; dup {
			continue
		}
		seen[ph] = struct{}{}

		p := h.Resolve(ph)
		max := n.AddParent(p, h.max.Load()+1)
		h.Observe(max)
	}
}

// Verify checks the two graph invariants across every edge: each parent
// scores strictly above each of its children, and every ancestor of a
// relative node is relative. A violation indicates a propagation bug or a
// cycle in the input and is returned as a fatal internal error.
func (h *History) Verify() error {
	for _, n := range h.Nodes() {
		for _, p := range n.Parents() {
			if p.Score() <= n.Score() {
				return apperrors.New(apperrors.ErrCodeGraphCorrupt,
					"parent %s (score %d) does not outrank child %s (score %d)",
					p.ID().Short(), p.Score(), n.ID().Short(), n.Score())
			}
			if n.IsRelative() && !p.IsRelative() {
				return apperrors.New(apperrors.ErrCodeGraphCorrupt,
					"relative closure broken: %s is relative but parent %s is not",
					n.ID().Short(), p.ID().Short())
			}
		}
	}
	return nil
}

// Load reads log records from r until EOF and returns the resulting
// history. Decoding is sequential; linking runs on the loader's worker
// pool. Cancelling ctx stops submission of further records - the core graph
// itself has no cancellation surface.
//
// The returned history has been verified; a verification failure aborts the
// build with a fatal internal error.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*History, error) {
	hist := NewHistory()

	work := make(chan Commit)
	var wg sync.WaitGroup
	wg.Add(l.workers)
	for i := 0; i < l.workers; i++ {
		go func() {
			defer wg.Done()
			for c := range work {
				hist.link(c)
			}
		}()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines int
	var scanErr error
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		c, err := ParseRecord(line)
		if err != nil {
			scanErr = err
			break
		}
		lines++

		if scanErr = ctx.Err(); scanErr != nil {
			break
		}
		select {
		case work <- c:
		case <-ctx.Done():
			scanErr = ctx.Err()
		}
		if scanErr != nil {
			break
		}
	}
	close(work)
	wg.Wait()

	if scanErr == nil {
		scanErr = scanner.Err()
	}
	if scanErr != nil {
		return nil, fmt.Errorf("read log stream: %w", scanErr)
	}

	if err := hist.Verify(); err != nil {
		return nil, err
	}

	l.logger.Debug("loaded commit graph",
		"commits", hist.Len(), "records", lines, "maxScore", hist.MaxScore())
	return hist, nil
}
