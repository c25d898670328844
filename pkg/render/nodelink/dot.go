package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/commitcanvas/pkg/layout"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes score and subject in node labels.
	// When false, only the abbreviated hash is shown.
	Detailed bool
}

// ToDOT converts a computed layout to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Commits on the same layout row are pinned to the same Graphviz rank so
// the rendered diagram preserves the score layering.
func ToDOT(l *layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph history {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	rows := make(map[int][]layout.Placement)
	for _, p := range l.Nodes {
		rows[p.Row] = append(rows[p.Row], p)
		label := fmtLabel(p, opts.Detailed)
		attrs := fmtAttrs(p, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", string(p.Hash), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for row := 0; row < l.Rows; row++ {
		placements := rows[row]
		if len(placements) < 2 {
			continue
		}
		ids := make([]string, len(placements))
		for i, p := range placements {
			ids[i] = strconv.Quote(string(p.Hash))
		}
		fmt.Fprintf(&buf, "  { rank=same; %s }\n", strings.Join(ids, "; "))
	}

	pos := make(map[[2]int]string, len(l.Nodes))
	for _, p := range l.Nodes {
		pos[[2]int{p.Row, p.Lane}] = string(p.Hash)
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		child := pos[[2]int{e.ChildRow, e.ChildLane}]
		parent := pos[[2]int{e.ParentRow, e.ParentLane}]
		fmt.Fprintf(&buf, "  %q -> %q;\n", child, parent)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p layout.Placement, detailed bool) string {
	label := p.Hash.Short()
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("score: %d", p.Score)}
	if p.Subject != "" {
		parts = append(parts, p.Subject)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(p layout.Placement, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case p.Head:
		attrs = append(attrs, "fillcolor=gold", "penwidth=2")
	case p.Relative:
		attrs = append(attrs, "fillcolor=lightgoldenrod1")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or embedding.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
