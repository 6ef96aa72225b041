// Package nodelink renders node graphs as Graphviz node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Styling
//
// Each node is a rounded box labelled with its display name and kind.
// Render targets are filled by category color, the active node gets a
// bold border, and nodes of unrecognized kinds are dashed and grey. Links
// into any port other than "Data" are labelled with the port name, so the
// order of merge inputs is visible.
//
// With [Options].Detailed the label also lists the node's configuration
// fields in key order.
//
// # Dependencies
//
// Rendering runs in-process through [github.com/goccy/go-graphviz]; no
// Graphviz installation is needed.
package nodelink
