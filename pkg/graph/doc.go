// Package graph provides the node graph that describes a HayStack render job.
//
// # Overview
//
// A [Graph] is a flat arena of [Node] values addressed by stable string IDs,
// plus a list of [Link] values connecting one node's output port to another
// node's named input port. Nodes are enumerated in insertion order and links
// in the order they were added, so every traversal over a graph is
// deterministic.
//
// # Node Kinds
//
// The set of node kinds is closed (see [Kind]). Each kind declares its input
// ports and whether it has an output port:
//
//   - Loaders, camera, transfer function, properties and output image have no
//     inputs and one "Data" output.
//   - Merge2 and Merge4 have "Data 1".."Data N" inputs and one output.
//   - Render targets have a single "Data" input that accepts up to
//     [MaxAggregateLinks] links and no output.
//
// Nodes whose kind is not recognized are kept (with [KindUnknown]) so a
// document written by a newer editor still loads; they have no ports.
//
// # Usage
//
//	g := graph.New("scene")
//	_ = g.AddNode(graph.Node{ID: "mesh", Kind: graph.KindUMesh})
//	_ = g.AddNode(graph.Node{ID: "viewer", Kind: graph.KindRenderViewer})
//	_ = g.AddLink(graph.Link{From: "mesh", To: "viewer", ToPort: graph.PortData})
//	g.SetActive("viewer")
//
// Graph is not safe for concurrent use without external synchronization.
package graph
