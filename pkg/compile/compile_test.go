package compile

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	hserrors "github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
	"github.com/braas-hpc/hscompose/pkg/node"
	"github.com/braas-hpc/hscompose/pkg/observability"
)

type testGraph struct {
	t *testing.T
	g *graph.Graph
}

func newGraph(t *testing.T, name string) *testGraph {
	return &testGraph{t: t, g: graph.New(name)}
}

func (tg *testGraph) node(id string, kind graph.Kind, cfg graph.Config) *testGraph {
	tg.t.Helper()
	if err := tg.g.AddNode(graph.Node{ID: id, Kind: kind, Config: cfg}); err != nil {
		tg.t.Fatalf("AddNode(%s): %v", id, err)
	}
	return tg
}

func (tg *testGraph) link(from, to, port string) *testGraph {
	tg.t.Helper()
	if err := tg.g.AddLink(graph.Link{From: from, To: to, ToPort: port}); err != nil {
		tg.t.Fatalf("AddLink(%s -> %s.%s): %v", from, to, port, err)
	}
	return tg
}

// sceneGraph is a typical viewer job: mesh, camera, properties and output
// feeding an hsViewer node.
func sceneGraph(t *testing.T) *graph.Graph {
	return newGraph(t, "scene").
		node("mesh", graph.KindUMesh, graph.Config{"file_path": "/data/model.umesh"}).
		node("cam", graph.KindCamera, graph.Config{"vp": []float64{1, 2, 3}, "fovy": 59.9999}).
		node("props", graph.KindProperties, graph.Config{"num_frames": 16}).
		node("out", graph.KindOutputImage, graph.Config{"dir_path": "/out", "image_file_name": "f.png"}).
		node("viewer", graph.KindRenderViewer, graph.Config{"file_path": "/opt/hs/bin/hsViewer"}).
		link("mesh", "viewer", "").
		link("cam", "viewer", "").
		link("props", "viewer", "").
		link("out", "viewer", "").
		g
}

func TestCompileTree(t *testing.T) {
	store := buffer.NewMemoryStore()
	c := New(node.Env{}, store, nil)

	res, err := c.CompileTree(context.Background(), sceneGraph(t))
	if err != nil {
		t.Fatalf("CompileTree: %v", err)
	}

	want := "/opt/hs/bin/hsViewer /data/model.umesh" +
		" --camera 1.0 2.0 3.0 0.0 0.0 0.0 0.0 1.0 0.0 -fovy 60.0" +
		" --num-frames 16 --paths-per-pixel 1 --default-radius 0.1 -ndg 1 -dpr 0 --no-mum" +
		" -o /out/f.png -res 800 600"
	if res.Command != want {
		t.Errorf("Command =\n  %s\nwant\n  %s", res.Command, want)
	}
	if res.Buffer != "scene_command_tree.cmd" {
		t.Errorf("Buffer = %q", res.Buffer)
	}
	if res.Root != "viewer" || res.Mode != ModeTree {
		t.Errorf("Root/Mode = %q/%q", res.Root, res.Mode)
	}
	if want := []string{"mesh", "cam", "props", "out", "viewer"}; !reflect.DeepEqual(res.Visited, want) {
		t.Errorf("Visited = %v, want %v", res.Visited, want)
	}

	got, err := store.Read(context.Background(), "scene_command_tree.cmd")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
}

func TestCompileTreeDeterministic(t *testing.T) {
	c := New(node.Env{}, nil, nil)
	g := sceneGraph(t)

	first, err := c.CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.CompileTree(context.Background(), g)
		if err != nil {
			t.Fatal(err)
		}
		if again.Command != first.Command {
			t.Fatalf("compile %d differs:\n  %s\n  %s", i, again.Command, first.Command)
		}
		if again.RunID == first.RunID {
			t.Error("RunID should differ between compiles")
		}
	}
}

func TestCompileTreeDiamondEmitsSharedNodeOnce(t *testing.T) {
	g := newGraph(t, "diamond").
		node("mesh", graph.KindOBJ, graph.Config{"file_path": "/data/a.obj"}).
		node("left", graph.KindMerge2, nil).
		node("right", graph.KindMerge2, nil).
		node("r", graph.KindRenderOffline, graph.Config{"file_path": "/bin/hsOffline"}).
		link("mesh", "left", "Data 1").
		link("mesh", "right", "Data 2").
		link("left", "r", "").
		link("right", "r", "").
		g

	res, err := New(node.Env{}, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "/bin/hsOffline /data/a.obj" {
		t.Errorf("Command = %q", res.Command)
	}
	if n := strings.Count(res.Command, "/data/a.obj"); n != 1 {
		t.Errorf("shared node emitted %d times", n)
	}
	if want := []string{"mesh", "left", "right", "r"}; !reflect.DeepEqual(res.Visited, want) {
		t.Errorf("Visited = %v, want %v", res.Visited, want)
	}
}

func TestCompileTreeMergeFollowsPortOrder(t *testing.T) {
	g := newGraph(t, "merge").
		node("a", graph.KindUMesh, graph.Config{"file_path": "/a"}).
		node("b", graph.KindUMesh, graph.Config{"file_path": "/b"}).
		node("c", graph.KindUMesh, graph.Config{"file_path": "/c"}).
		node("m", graph.KindMerge4, nil).
		node("r", graph.KindRenderViewer, graph.Config{"file_path": "/hs"}).
		link("c", "m", "Data 3").
		link("a", "m", "Data 1").
		link("b", "m", "Data 2").
		link("m", "r", "").
		g

	res, err := New(node.Env{}, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "/hs /a /b /c" {
		t.Errorf("Command = %q, want %q", res.Command, "/hs /a /b /c")
	}
}

func TestCompileTreeSkipsUnknownKinds(t *testing.T) {
	g := newGraph(t, "unknown").
		node("frame", graph.KindUnknown, graph.Config{"note": "editor frame"}).
		node("mesh", graph.KindUMesh, graph.Config{"file_path": "/a.umesh"}).
		node("r", graph.KindRenderViewer, graph.Config{"file_path": "/hs"}).
		link("frame", "r", "").
		link("mesh", "r", "").
		g

	res, err := New(node.Env{}, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "/hs /a.umesh" {
		t.Errorf("Command = %q", res.Command)
	}
}

func TestCompileTreeIgnoresOrphans(t *testing.T) {
	g := newGraph(t, "orphans").
		node("mesh", graph.KindUMesh, graph.Config{"file_path": "/a.umesh"}).
		node("o", graph.KindOBJ, graph.Config{"file_path": "/b.obj"}).
		node("x", graph.KindUnknown, nil).
		node("c1", graph.KindMerge2, nil).
		node("c2", graph.KindMerge2, nil).
		node("r", graph.KindRenderViewer, graph.Config{"file_path": "/hs"}).
		link("mesh", "r", "").
		link("o", "x", "Input").
		link("c1", "c2", "Data 1").
		link("c2", "c1", "Data 1").
		g
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	res, err := New(node.Env{}, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "/hs /a.umesh" {
		t.Errorf("Command = %q, want %q", res.Command, "/hs /a.umesh")
	}
	if want := []string{"mesh", "r"}; !reflect.DeepEqual(res.Visited, want) {
		t.Errorf("Visited = %v, want %v", res.Visited, want)
	}
}

func TestCompileTreeNoRootLeavesBufferUntouched(t *testing.T) {
	ctx := context.Background()
	store := buffer.NewMemoryStore()
	if err := store.Write(ctx, "orphans_command_tree.cmd", []byte("previous")); err != nil {
		t.Fatal(err)
	}

	g := newGraph(t, "orphans").
		node("mesh", graph.KindUMesh, graph.Config{"file_path": "/a.umesh"}).
		g

	_, err := New(node.Env{}, store, nil).CompileTree(ctx, g)
	if !hserrors.Is(err, hserrors.ErrCodeNoRoot) {
		t.Fatalf("err = %v, want NO_ROOT", err)
	}
	if !hserrors.IsConfiguration(err) {
		t.Error("NO_ROOT should be a configuration error")
	}
	got, _ := store.Read(ctx, "orphans_command_tree.cmd")
	if string(got) != "previous" {
		t.Errorf("buffer = %q, want it untouched", got)
	}
}

func TestFindRoot(t *testing.T) {
	two := newGraph(t, "two").
		node("v", graph.KindRenderViewer, nil).
		node("o", graph.KindRenderOffline, nil).
		node("cam", graph.KindCamera, nil).
		g

	if _, err := FindRoot(two); !hserrors.Is(err, hserrors.ErrCodeNoRoot) {
		t.Errorf("two render targets without selection: err = %v, want NO_ROOT", err)
	}

	two.SetActive("cam")
	if _, err := FindRoot(two); !hserrors.Is(err, hserrors.ErrCodeNoRoot) {
		t.Errorf("non-render active node: err = %v, want NO_ROOT", err)
	}

	two.SetActive("o")
	root, err := FindRoot(two)
	if err != nil || root.ID != "o" {
		t.Errorf("FindRoot = %v, %v; want o", root, err)
	}
}

func TestCompileTreeFragmentErrorNamesNode(t *testing.T) {
	ctx := context.Background()
	store := buffer.NewMemoryStore()
	if err := store.Write(ctx, "bad_command_tree.cmd", []byte("previous")); err != nil {
		t.Fatal(err)
	}

	g := newGraph(t, "bad").
		node("pts", graph.KindSpheres, graph.Config{"file_path": "/p.bin", "format": "XY"}).
		node("r", graph.KindRenderViewer, graph.Config{"file_path": "/hs"}).
		link("pts", "r", "").
		g

	_, err := New(node.Env{}, store, nil).CompileTree(ctx, g)
	if !hserrors.Is(err, hserrors.ErrCodeNodeFragment) {
		t.Fatalf("err = %v, want NODE_FRAGMENT", err)
	}
	if msg := hserrors.UserMessage(err); !strings.Contains(msg, "pts") || !strings.Contains(msg, "spheres") {
		t.Errorf("message %q should name the node and its kind", msg)
	}
	got, _ := store.Read(ctx, "bad_command_tree.cmd")
	if string(got) != "previous" {
		t.Errorf("buffer = %q, want it untouched", got)
	}
}

func TestCompileTreeEscapesDrivesInUpstreamTokens(t *testing.T) {
	g := newGraph(t, "win").
		node("mesh", graph.KindRAWVolume, graph.Config{"file_path_remote": "C:/vol.raw", "dims": []int{2, 2, 2}}).
		node("tf", graph.KindTransferFunction, graph.Config{"file_path_remote": "/D:/tf.xf"}).
		node("r", graph.KindRenderViewer, graph.Config{"file_path_remote": "/E:/hs/hsViewer"}).
		link("mesh", "r", "").
		link("tf", "r", "").
		g

	env := node.Env{Paths: node.PathPolicy{Remote: true, EscapeDrives: true}}
	res, err := New(env, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	want := "/E:/hs/hsViewer raw://1@C$/vol.raw:format=float:dims=2,2,2:channels=1 -xf /D$/tf.xf"
	if res.Command != want {
		t.Errorf("Command = %q, want %q", res.Command, want)
	}
}

func TestCompileTreeRecordsMaterials(t *testing.T) {
	g := newGraph(t, "mat").
		node("tf", graph.KindTransferFunction, graph.Config{"file_path": "/tf.xf", "material": "Smoke"}).
		node("r", graph.KindRenderViewer, graph.Config{"file_path": "/hs"}).
		link("tf", "r", "").
		g

	res, err := New(node.Env{}, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Materials, []string{"Smoke"}) {
		t.Errorf("Materials = %v", res.Materials)
	}
}

func TestCompileTreeBlenderPortOverride(t *testing.T) {
	g := newGraph(t, "blend").
		node("mesh", graph.KindOBJ, graph.Config{"file_path": "/a.obj"}).
		node("r", graph.KindRenderBlender, graph.Config{"file_path": "/hs/hsBlender", "server_name": "gpu01"}).
		link("mesh", "r", "").
		g

	env := node.Env{PortOverride: func() (int, bool) { return 5123, true }}
	res, err := New(env, nil, nil).CompileTree(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if want := "/hs/hsBlender /a.obj -server gpu01 -port 5123"; res.Command != want {
		t.Errorf("Command = %q, want %q", res.Command, want)
	}
}

func TestCompileNode(t *testing.T) {
	ctx := context.Background()
	store := buffer.NewMemoryStore()
	g := sceneGraph(t)
	g.SetActive("cam")
	c := New(node.Env{}, store, nil)

	res, err := c.CompileNode(ctx, g, "")
	if err != nil {
		t.Fatalf("CompileNode: %v", err)
	}
	want := "--camera 1.0 2.0 3.0 0.0 0.0 0.0 0.0 1.0 0.0 -fovy 60.0"
	if res.Command != want {
		t.Errorf("Command = %q, want %q", res.Command, want)
	}
	if res.Buffer != "scene_command_node.cmd" {
		t.Errorf("Buffer = %q", res.Buffer)
	}
	if _, err := store.Read(ctx, "scene_command_tree.cmd"); !errors.Is(err, buffer.ErrNotFound) {
		t.Error("node mode must not touch the tree buffer")
	}

	res, err = c.CompileNode(ctx, g, "viewer")
	if err != nil {
		t.Fatal(err)
	}
	if res.Command != "/opt/hs/bin/hsViewer" {
		t.Errorf("render node alone = %q, want only its executable", res.Command)
	}
}

func TestCompileNodeErrors(t *testing.T) {
	g := sceneGraph(t)
	c := New(node.Env{}, nil, nil)

	if _, err := c.CompileNode(context.Background(), g, ""); !hserrors.Is(err, hserrors.ErrCodeNoRoot) {
		t.Errorf("no active node: err = %v, want NO_ROOT", err)
	}
	if _, err := c.CompileNode(context.Background(), g, "nope"); !hserrors.Is(err, hserrors.ErrCodeNotFound) {
		t.Errorf("missing node: err = %v, want NOT_FOUND", err)
	}
}

type failingSink struct{}

func (failingSink) Write(context.Context, string, []byte) error { return errors.New("disk full") }

func TestCompileSinkError(t *testing.T) {
	_, err := New(node.Env{}, failingSink{}, nil).CompileTree(context.Background(), sceneGraph(t))
	if !hserrors.Is(err, hserrors.ErrCodeBuffer) {
		t.Errorf("err = %v, want BUFFER", err)
	}
}

type recordingHooks struct {
	observability.NoopCompileHooks
	started   []string
	completed []error
	tokens    []int
}

func (h *recordingHooks) OnCompileStart(_ context.Context, graph, mode string) {
	h.started = append(h.started, graph+"/"+mode)
}

func (h *recordingHooks) OnCompileComplete(_ context.Context, _, _ string, tokens int, _ time.Duration, err error) {
	h.completed = append(h.completed, err)
	h.tokens = append(h.tokens, tokens)
}

func TestCompileHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetCompileHooks(h)
	defer observability.Reset()

	c := New(node.Env{}, nil, nil)
	if _, err := c.CompileTree(context.Background(), sceneGraph(t)); err != nil {
		t.Fatal(err)
	}
	_, _ = c.CompileTree(context.Background(), graph.New("empty"))

	if want := []string{"scene/tree", "empty/tree"}; !reflect.DeepEqual(h.started, want) {
		t.Errorf("started = %v, want %v", h.started, want)
	}
	if len(h.completed) != 2 || h.completed[0] != nil || h.completed[1] == nil {
		t.Errorf("completed = %v", h.completed)
	}
	if h.tokens[0] == 0 {
		t.Error("token count should be reported")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"tree", ModeTree, false},
		{"NODE", ModeNode, false},
		{"graph", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("/hs", []string{"", "a", "", "b"}); got != "/hs a b" {
		t.Errorf("Join = %q", got)
	}
	if got := Join("", []string{"-xf", "/a.xf"}); got != "-xf /a.xf" {
		t.Errorf("Join without exe = %q", got)
	}
}
