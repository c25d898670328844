package commitgraph

// Segment describes one parent edge for the rendering layer: it starts at
// the child commit and runs to the parent. The layout stage resolves the two
// endpoints into screen coordinates; this package never interprets segments
// beyond accumulating them.
type Segment struct {
	Parent *Node
	Child  *Node
}

// newSegment builds the edge descriptor recorded when child gains parent.
func newSegment(parent, child *Node) Segment {
	return Segment{Parent: parent, Child: child}
}
