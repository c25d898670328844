package commitgraph

import "sync/atomic"

// Hash is an opaque commit identifier. It is comparable and usable as a map
// key; this package never inspects its contents.
type Hash string

// Short returns an abbreviated form of the hash for labels and logs.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// Node is a single commit in the history graph.
//
// A node is created once per distinct commit hash with a provisional score
// (typically its arrival index in the log stream) and lives for the lifetime
// of the graph. Edges are only ever added, the score is only ever raised,
// and the relative flag only ever flips from false to true.
//
// All methods are safe for concurrent use; see the package documentation for
// the exact guarantees.
type Node struct {
	id Hash

	score    atomic.Int64
	relative atomic.Bool

	parents  appendList[*Node]
	children appendList[*Node]
	segments appendList[Segment]

	// payload holds externally owned commit metadata. The graph never reads
	// it; it exists so consumers can hang their record off the node they
	// resolved it to.
	payload atomic.Value
}

// New creates a node with the given hash and provisional score, no edges,
// and the relative flag unset.
func New(id Hash, initialScore int64) *Node {
	n := &Node{id: id}
	n.score.Store(initialScore)
	return n
}

// ID returns the commit hash the node was created with.
func (n *Node) ID() Hash { return n.id }

// Score returns the node's current topological score. Under concurrent
// propagation the value may be raised immediately after it is read; it never
// decreases.
func (n *Node) Score() int64 { return n.score.Load() }

// IsRelative reports whether the node is the checked-out commit or one of
// its ancestors.
func (n *Node) IsRelative() bool { return n.relative.Load() }

// Parents returns a point-in-time snapshot of the node's direct ancestors.
// The order is not meaningful.
func (n *Node) Parents() []*Node { return n.parents.snapshot() }

// Children returns a point-in-time snapshot of the nodes that named this
// node as a parent. The order is not meaningful.
func (n *Node) Children() []*Node { return n.children.snapshot() }

// ParentCount returns the number of parent edges added so far.
func (n *Node) ParentCount() int { return n.parents.len() }

// StartSegments returns a point-in-time copy of the edge descriptors that
// start at this node, one per parent edge added so far.
func (n *Node) StartSegments() []Segment { return n.segments.snapshot() }

// SetPayload attaches an externally owned metadata value to the node.
// The graph never interprets it.
func (n *Node) SetPayload(v any) { n.payload.Store(v) }

// Payload returns the attached metadata value, or nil if none was set.
func (n *Node) Payload() any { return n.payload.Load() }

// OverrideScore unconditionally sets the score, bypassing the ordering
// invariant. It is only valid on the initial-assignment path, before the
// node has any edges.
func (n *Node) OverrideScore(v int64) { n.score.Store(v) }

// ApplyFlags merges checkout state into the node: a true isCheckedOut sets
// the relative flag, a false one leaves it untouched.
func (n *Node) ApplyFlags(isCheckedOut bool) {
	if isCheckedOut {
		n.relative.Store(true)
	}
}

// AddParent links parent as a direct ancestor of n and returns the maximum
// score anywhere in the graph after the edge is in place.
//
// minimumScore is the lowest score the parent may end up with; callers pass
// one more than the running maximum so the parent is guaranteed to outrank
// every commit seen so far. If n is already relative, the parent's ancestor
// chain is marked relative before the edge becomes visible, so no reader can
// observe a relative child behind a non-relative parent.
//
// AddParent may be called concurrently for different edges. It must be
// called at most once per concrete child→parent pair; edges are not
// deduplicated. A nil parent is a programmer error and panics.
func (n *Node) AddParent(parent *Node, minimumScore int64) int64 {
	if parent == nil {
		panic("commitgraph: AddParent called with nil parent")
	}
	if n.relative.Load() {
		parent.MakeRelative()
	}

	n.parents.push(parent)
	parent.children.push(n)

	// The caller's bound normally already outranks this child, but a child
	// whose score was raised by its own descendants in the meantime must
	// still end up below the new parent.
	bound := minimumScore
	if s := n.score.Load() + 1; s > bound {
		bound = s
	}

	max := parent.EnsureScoreIsAbove(bound)
	n.segments.push(newSegment(parent, n))
	return max
}

// EnsureScoreIsAbove raises the node's score to at least minimumScore and
// transitively re-raises ancestors so every parent stays strictly above each
// of its children. It returns the maximum score produced by this call across
// the visited subgraph, or the node's current score when nothing needed to
// change.
//
// The common case - minimumScore not exceeding the current score - is a
// single atomic load. Raises go through a compare-and-swap loop that only
// writes strictly greater values, so concurrent propagations from different
// starting nodes compose without a global lock; they may revisit a node
// redundantly, but every revisit is idempotent and the work is bounded by
// the set of nodes whose scores actually change.
func (n *Node) EnsureScoreIsAbove(minimumScore int64) int64 {
	if !raiseScore(n, minimumScore) {
		return n.score.Load()
	}

	maxSeen := minimumScore
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Re-read the bound at pop time: a concurrent raise may have pushed
		// the score past the value that queued this node.
		bound := cur.score.Load() + 1
		for _, p := range cur.parents.snapshot() {
			if raiseScore(p, bound) {
				if bound > maxSeen {
					maxSeen = bound
				}
				stack = append(stack, p)
			}
		}
	}
	return maxSeen
}

// raiseScore lifts n's score to v if v is strictly greater than the stored
// value. It reports whether it wrote. Losing a CAS race to a larger value
// counts as not writing; losing to a smaller one retries.
func raiseScore(n *Node, v int64) bool {
	for {
		cur := n.score.Load()
		if v <= cur {
			return false
		}
		if n.score.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// MakeRelative marks the node and every ancestor as relative.
//
// If the node is already relative the call returns immediately: the closure
// invariant guarantees its whole ancestor set is already marked, so there is
// nothing left to flood. The traversal uses an explicit stack and prunes at
// every already-marked node, which bounds the work to the newly marked set.
func (n *Node) MakeRelative() {
	if !n.relative.CompareAndSwap(false, true) {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cur.parents.snapshot() {
			if p.relative.CompareAndSwap(false, true) {
				stack = append(stack, p)
			}
		}
	}
}
