// Package nodelink renders commit history graphs as node-link diagrams.
//
// The graph is first converted to Graphviz DOT ([ToDOT]) and then rendered
// to SVG or PNG via goccy/go-graphviz. Relative commits - the checked-out
// commit and its ancestors - are filled to stand out from the rest of the
// history; the HEAD commit additionally gets a bold outline.
//
// Ranks follow the layout rows computed from commit scores, so every parent
// appears strictly below each of its children.
package nodelink
