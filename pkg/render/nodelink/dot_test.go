package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

func sceneGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("scene")
	nodes := []graph.Node{
		{ID: "a", Kind: graph.KindOBJ, Config: graph.Config{"file_path": "/a.obj"}},
		{ID: "b", Kind: graph.KindSpheres, Label: "Points"},
		{ID: "m", Kind: graph.KindMerge2},
		{ID: "x", Kind: graph.KindUnknown, Type: "NodeFrame"},
		{ID: "v", Kind: graph.KindRenderViewer},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, l := range []graph.Link{
		{From: "a", To: "m", ToPort: "Data 1"},
		{From: "b", To: "m", ToPort: "Data 2"},
		{From: "m", To: "v"},
	} {
		if err := g.AddLink(l); err != nil {
			t.Fatal(err)
		}
	}
	g.SetActive("v")
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sceneGraph(t), Options{})

	for _, want := range []string{
		`digraph "scene" {`,
		`"a" [label="a\nobj", fillcolor="#e8f1fb"];`,
		`"b" [label="Points\nspheres"`,
		`"x" [label="x\nNodeFrame", style="rounded,filled,dashed", fillcolor=lightgrey, fontcolor=black];`,
		`"v" [label="v\nrender_viewer", fillcolor="#ffd9d1", shape=box3d, penwidth=3];`,
		`"a" -> "m" [label="Data 1"];`,
		`"b" -> "m" [label="Data 2"];`,
		`"m" -> "v";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sceneGraph(t), Options{Detailed: true})
	if !strings.Contains(dot, `file_path: /a.obj`) {
		t.Errorf("detailed label missing config:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	g := sceneGraph(t)
	if ToDOT(g, Options{Detailed: true}) != ToDOT(g, Options{Detailed: true}) {
		t.Error("ToDOT should be deterministic")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sceneGraph(t), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("unexpected SVG root: %.200s", svg)
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(context.Background(), ToDOT(sceneGraph(t), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected parse error")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if out != want {
		t.Errorf("got %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox should be unchanged: %s", got)
	}
}
