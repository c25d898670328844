package commitgraph

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	n := New("abc123", 7)

	if n.ID() != "abc123" {
		t.Errorf("ID() = %q, want abc123", n.ID())
	}
	if n.Score() != 7 {
		t.Errorf("Score() = %d, want 7", n.Score())
	}
	if n.IsRelative() {
		t.Error("IsRelative() = true for a fresh node")
	}
	if len(n.Parents()) != 0 || len(n.Children()) != 0 || len(n.StartSegments()) != 0 {
		t.Error("fresh node has edges or segments")
	}
}

func TestHashShort(t *testing.T) {
	tests := []struct {
		in   Hash
		want string
	}{
		{"0123456789abcdef", "01234567"},
		{"ab12", "ab12"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tt.in.Short(); got != tt.want {
			t.Errorf("Short(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddParentSingleEdge(t *testing.T) {
	// Scenario: child and parent both start at score 0; linking with a
	// bound of 1 must lift the parent above the child.
	c := New("child", 0)
	p := New("parent", 0)

	got := c.AddParent(p, 1)

	if got != 1 {
		t.Errorf("AddParent returned %d, want 1", got)
	}
	if p.Score() != 1 {
		t.Errorf("parent score = %d, want 1", p.Score())
	}
	if parents := c.Parents(); len(parents) != 1 || parents[0] != p {
		t.Errorf("child parents = %v, want [parent]", parents)
	}
	if children := p.Children(); len(children) != 1 || children[0] != c {
		t.Errorf("parent children = %v, want [child]", children)
	}
	segs := c.StartSegments()
	if len(segs) != 1 {
		t.Fatalf("child has %d segments, want 1", len(segs))
	}
	if segs[0].Parent != p || segs[0].Child != c {
		t.Errorf("segment = (%v, %v), want (parent, child)", segs[0].Parent.ID(), segs[0].Child.ID())
	}
}

func TestAddParentNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AddParent(nil) did not panic")
		}
	}()
	New("c", 0).AddParent(nil, 1)
}

func TestAddParentChainPropagation(t *testing.T) {
	// A is an ancestor of B is an ancestor of C. Linking C under B must
	// force B upward and, transitively, push A past B again.
	a := New("a", 5)
	b := New("b", 0)
	c := New("c", 0)

	b.AddParent(a, 6)
	if a.Score() < 6 {
		t.Fatalf("a score = %d, want >= 6", a.Score())
	}

	c.AddParent(b, 7)
	if b.Score() != 7 {
		t.Errorf("b score = %d, want 7", b.Score())
	}
	if a.Score() < 8 {
		t.Errorf("a score = %d, want >= 8", a.Score())
	}
	if !(a.Score() > b.Score() && b.Score() > c.Score()) {
		t.Errorf("ordering violated: a=%d b=%d c=%d", a.Score(), b.Score(), c.Score())
	}
}

func TestAddParentManyParents(t *testing.T) {
	c := New("child", 0)
	parents := make([]*Node, 8)
	for i := range parents {
		parents[i] = New(Hash(fmt.Sprintf("p%d", i)), 0)
		c.AddParent(parents[i], int64(i+1))
	}

	if got := len(c.Parents()); got != len(parents) {
		t.Errorf("len(Parents()) = %d, want %d", got, len(parents))
	}
	if got := c.ParentCount(); got != len(parents) {
		t.Errorf("ParentCount() = %d, want %d", got, len(parents))
	}
	if got := len(c.StartSegments()); got != len(parents) {
		t.Errorf("len(StartSegments()) = %d, want %d", got, len(parents))
	}
	for _, p := range parents {
		children := p.Children()
		if len(children) != 1 || children[0] != c {
			t.Errorf("parent %s children = %v, want [child]", p.ID(), children)
		}
		if p.Score() <= c.Score() {
			t.Errorf("parent %s score %d not above child score %d", p.ID(), p.Score(), c.Score())
		}
	}
}

func TestEnsureScoreIsAboveNoop(t *testing.T) {
	tests := []struct {
		name string
		min  int64
	}{
		{"Below", 3},
		{"Equal", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := New("p", 9)
			n := New("n", 5)
			n.AddParent(parent, 6) // parent already above, stays at 9

			before := parent.Score()
			if got := n.EnsureScoreIsAbove(tt.min); got != n.Score() {
				t.Errorf("EnsureScoreIsAbove(%d) = %d, want current score %d", tt.min, got, n.Score())
			}
			if n.Score() != 5 {
				t.Errorf("score changed to %d on no-op path", n.Score())
			}
			if parent.Score() != before {
				t.Errorf("ancestor score changed to %d on no-op path", parent.Score())
			}
		})
	}
}

func TestEnsureScoreIsAboveCompactBounds(t *testing.T) {
	// Raising a node lifts each ancestor to exactly one more than the
	// tightest known bound rather than letting scores balloon on fan-in.
	a := New("a", 0)
	b := New("b", 0)
	b.AddParent(a, 1)

	max := b.EnsureScoreIsAbove(10)
	if b.Score() != 10 {
		t.Errorf("b score = %d, want 10", b.Score())
	}
	if a.Score() != 11 {
		t.Errorf("a score = %d, want 11", a.Score())
	}
	if max != 11 {
		t.Errorf("max = %d, want 11", max)
	}
}

func TestOverrideScore(t *testing.T) {
	n := New("n", 3)
	n.OverrideScore(1)
	if n.Score() != 1 {
		t.Errorf("score = %d, want 1", n.Score())
	}
}

func TestApplyFlags(t *testing.T) {
	n := New("n", 0)
	n.ApplyFlags(false)
	if n.IsRelative() {
		t.Error("ApplyFlags(false) set the relative flag")
	}
	n.ApplyFlags(true)
	if !n.IsRelative() {
		t.Error("ApplyFlags(true) did not set the relative flag")
	}
	n.ApplyFlags(false)
	if !n.IsRelative() {
		t.Error("ApplyFlags(false) reset the relative flag")
	}
}

func TestMakeRelativeFloodsAncestors(t *testing.T) {
	// C is a child of B, B is a child of A. Marking B must reach A but
	// never descend to C.
	a := New("a", 2)
	b := New("b", 1)
	c := New("c", 0)
	b.AddParent(a, 3)
	c.AddParent(b, 4)

	b.MakeRelative()

	if !a.IsRelative() {
		t.Error("ancestor a not marked relative")
	}
	if !b.IsRelative() {
		t.Error("b not marked relative")
	}
	if c.IsRelative() {
		t.Error("descendant c marked relative")
	}
}

func TestMakeRelativeIdempotent(t *testing.T) {
	a := New("a", 1)
	b := New("b", 0)
	b.AddParent(a, 2)

	b.MakeRelative()
	b.MakeRelative()

	if !a.IsRelative() || !b.IsRelative() {
		t.Error("second MakeRelative changed the marked set")
	}
}

func TestAddParentPropagatesRelativityBeforeLinking(t *testing.T) {
	// A relative child must never be observable behind a non-relative
	// parent, even transitively through the parent's own ancestors.
	grandparent := New("gp", 2)
	parent := New("p", 1)
	parent.AddParent(grandparent, 3)

	child := New("c", 0)
	child.MakeRelative()
	child.AddParent(parent, 4)

	if !parent.IsRelative() {
		t.Error("parent not relative after linking under a relative child")
	}
	if !grandparent.IsRelative() {
		t.Error("grandparent not relative after linking under a relative child")
	}
}

func TestPayload(t *testing.T) {
	n := New("n", 0)
	if n.Payload() != nil {
		t.Errorf("Payload() = %v on a fresh node, want nil", n.Payload())
	}
	type meta struct{ subject string }
	m := &meta{subject: "initial commit"}
	n.SetPayload(m)
	if got := n.Payload(); got != any(m) {
		t.Errorf("Payload() = %v, want the attached value", got)
	}
}

// randomDAG builds n nodes whose initial score is their arrival index and a
// deterministic random edge set where every parent arrives after its child,
// the shape a newest-first log stream produces.
func randomDAG(n int, seed int64) ([]*Node, [][2]int) {
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = New(Hash(fmt.Sprintf("c%04d", i)), int64(i))
	}
	var edges [][2]int
	for child := 0; child < n-1; child++ {
		for k := 0; k < 1+rng.Intn(2); k++ {
			parent := child + 1 + rng.Intn(n-child-1)
			edges = append(edges, [2]int{child, parent})
		}
	}
	return nodes, edges
}

func checkOrdering(t *testing.T, nodes []*Node, edges [][2]int) {
	t.Helper()
	for _, e := range edges {
		child, parent := nodes[e[0]], nodes[e[1]]
		if parent.Score() <= child.Score() {
			t.Fatalf("edge %s→%s: parent score %d not above child score %d",
				child.ID(), parent.ID(), parent.Score(), child.Score())
		}
	}
}

func TestConcurrentAddParentOrderIndependent(t *testing.T) {
	const size = 400
	const seed = 42

	// Sequential reference run: the fixed point the concurrent run must
	// also reach, independent of interleaving.
	refNodes, edges := randomDAG(size, seed)
	for _, e := range edges {
		refNodes[e[0]].AddParent(refNodes[e[1]], int64(e[0])+1)
	}
	checkOrdering(t, refNodes, edges)

	for run := 0; run < 3; run++ {
		nodes, _ := randomDAG(size, seed)

		const workers = 8
		work := make(chan [2]int)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for e := range work {
					nodes[e[0]].AddParent(nodes[e[1]], int64(e[0])+1)
				}
			}()
		}
		shuffled := make([][2]int, len(edges))
		copy(shuffled, edges)
		rand.New(rand.NewSource(int64(run))).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, e := range shuffled {
			work <- e
		}
		close(work)
		wg.Wait()

		checkOrdering(t, nodes, edges)
		for i := range nodes {
			if nodes[i].Score() != refNodes[i].Score() {
				t.Fatalf("run %d: node %d score = %d, sequential run produced %d",
					run, i, nodes[i].Score(), refNodes[i].Score())
			}
		}
	}
}

func TestConcurrentMakeRelativeClosure(t *testing.T) {
	nodes, edges := randomDAG(200, 7)
	for _, e := range edges {
		nodes[e[0]].AddParent(nodes[e[1]], int64(e[0])+1)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i += 5 {
		wg.Add(1)
		go func(n *Node) {
			defer wg.Done()
			n.MakeRelative()
		}(nodes[i])
	}
	wg.Wait()

	// Relative closure: every ancestor of a relative node is relative.
	for _, n := range nodes {
		if !n.IsRelative() {
			continue
		}
		for _, p := range n.Parents() {
			if !p.IsRelative() {
				t.Fatalf("node %s relative but parent %s is not", n.ID(), p.ID())
			}
		}
	}
}

func TestConcurrentEdgeCompleteness(t *testing.T) {
	// Many goroutines each add a distinct parent to the same child; every
	// edge must land exactly once on both sides.
	const parents = 64
	child := New("child", 0)
	ps := make([]*Node, parents)
	for i := range ps {
		ps[i] = New(Hash(fmt.Sprintf("p%02d", i)), 0)
	}

	var wg sync.WaitGroup
	wg.Add(parents)
	for i := range ps {
		go func(i int) {
			defer wg.Done()
			child.AddParent(ps[i], int64(i)+1)
		}(i)
	}
	wg.Wait()

	if got := len(child.Parents()); got != parents {
		t.Errorf("len(Parents()) = %d, want %d", got, parents)
	}
	if got := len(child.StartSegments()); got != parents {
		t.Errorf("len(StartSegments()) = %d, want %d", got, parents)
	}
	for _, p := range ps {
		children := p.Children()
		if len(children) != 1 || children[0] != child {
			t.Errorf("parent %s children = %v, want [child]", p.ID(), children)
		}
		if p.Score() <= child.Score() {
			t.Errorf("parent %s score %d not above child score %d", p.ID(), p.Score(), child.Score())
		}
	}
}
