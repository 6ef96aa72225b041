package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the node configuration to each label.
	Detailed bool
}

var categoryFill = map[graph.Category]string{
	graph.CategoryDataLoader: "#e8f1fb",
	graph.CategoryScene:      "#fdf3e1",
	graph.CategoryUtility:    "#f2f2f2",
	graph.CategoryProperty:   "#eef7ea",
	graph.CategoryOutput:     "#f3e8fb",
	graph.CategoryRender:     "#ffd9d1",
}

// ToDOT converts g to Graphviz DOT source, top to bottom from loaders to
// render targets.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", g.Name())
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), n.ID == g.Active())
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		if l.ToPort != "" && l.ToPort != graph.PortData {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", l.From, l.To, l.ToPort)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.From, l.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, detailed bool) string {
	label := n.DisplayName() + "\n" + n.Type
	if !detailed || len(n.Config) == 0 {
		return label
	}
	parts := make([]string, 0, len(n.Config))
	for _, k := range slices.Sorted(maps.Keys(n.Config)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Config[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *graph.Node, label string, active bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !n.Kind.Known():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	default:
		if fill, ok := categoryFill[n.Kind.Category()]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
		}
	}
	if n.Kind.IsRenderTarget() {
		attrs = append(attrs, "shape=box3d")
	}
	if active {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from its
// viewBox origin.
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
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
