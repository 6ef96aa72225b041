package graph_test

import (
	"fmt"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

func ExampleGraph_Upstream() {
	g := graph.New("scene")
	_ = g.AddNode(graph.Node{ID: "mesh", Kind: graph.KindUMesh})
	_ = g.AddNode(graph.Node{ID: "cam", Kind: graph.KindCamera})
	_ = g.AddNode(graph.Node{ID: "viewer", Kind: graph.KindRenderViewer})
	_ = g.AddLink(graph.Link{From: "mesh", To: "viewer"})
	_ = g.AddLink(graph.Link{From: "cam", To: "viewer"})

	fmt.Println(g.Upstream("viewer"))
	// Output: [mesh cam]
}

func ExampleParseKind() {
	k, _ := graph.ParseKind("HayStackLoadRAWVolumeNodeType")
	fmt.Println(k, k.Label(), k.Category())
	// Output: raw_volume RAWVolume DataLoader
}
