// Package render draws node graphs. The [nodelink] subpackage produces
// Graphviz diagrams of a graph's nodes and links.
//
// [nodelink]: github.com/braas-hpc/hscompose/pkg/render/nodelink
package render
