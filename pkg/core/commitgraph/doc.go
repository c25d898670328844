// Package commitgraph holds the in-memory commit history graph.
//
// Commits arrive as a stream, not a batch: the log reader discovers them in
// arbitrary order and may resolve parent links from several goroutines at
// once. The graph therefore only ever grows, and every mutation on it is a
// lock-free operation - edges land in atomically swapped append-only lists,
// scores are raised through compare-and-swap loops, and the relative flag is
// a monotonic boolean.
//
// # Scores
//
// Each node carries an integer score used by the layout stage to order
// commits vertically. The invariant is that a parent's score is strictly
// greater than the score of every one of its children. Because arrival order
// does not match topological order, a node's provisional score (its arrival
// index) may need to be raised after the fact; [Node.AddParent] is the single
// choke point where this is enforced, via [Node.EnsureScoreIsAbove]. Scores
// never decrease.
//
// # Relative marking
//
// A node is "relative" when it is the checked-out commit or one of its
// ancestors. [Node.MakeRelative] floods the flag up the ancestor chain; the
// flag only ever transitions from false to true. AddParent marks the parent
// before publishing the edge, so a reader can never observe a relative child
// behind a non-relative parent.
//
// # Traversal depth
//
// Real histories have ancestor chains tens of thousands of commits deep.
// Both score propagation and relative marking use explicit work stacks
// instead of recursion so stack usage stays constant regardless of depth.
//
// # Concurrency
//
// All methods are safe for concurrent use. The caller must guarantee at most
// one AddParent call per concrete child→parent pair; the graph does not
// deduplicate edges. Cycles are not detected - inputs come from commit
// ancestry, where a commit cannot be its own ancestor.
package commitgraph
