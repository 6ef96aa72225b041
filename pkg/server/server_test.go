package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/graph"
	"github.com/braas-hpc/hscompose/pkg/node"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/remote"
	"github.com/braas-hpc/hscompose/pkg/settings"
	"github.com/braas-hpc/hscompose/pkg/watch"
)

const sceneDoc = `{
  "name": "scene",
  "active": "cam",
  "nodes": [
    {"id": "mesh", "kind": "obj", "config": {"file_path": "/data/bunny.obj"}},
    {"id": "cam", "kind": "camera", "config": {"vp": [0, 0, 5], "fovy": 45}},
    {"id": "viewer", "kind": "render_viewer", "config": {"file_path": "/opt/hs/hsViewer"}}
  ],
  "links": [
    {"from": "mesh", "to": "viewer"},
    {"from": "cam", "to": "viewer"}
  ]
}`

func newTestServer(t *testing.T) (*Server, *buffer.MemoryStore) {
	t.Helper()
	store := buffer.NewMemoryStore()
	return &Server{
		Compiler: compile.New(node.Env{}, store, nil),
		Store:    store,
	}, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCompileTree(t *testing.T) {
	s, store := newTestServer(t)
	w := do(t, s.Handler(), http.MethodPost, "/compile/tree", sceneDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res compile.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "scene_command_tree.cmd", res.Buffer)
	assert.Equal(t, "viewer", res.Root)
	assert.True(t, strings.HasPrefix(res.Command, "/opt/hs/hsViewer /data/bunny.obj --camera 0.0 0.0 5.0"), res.Command)

	stored, err := store.Read(context.Background(), "scene_command_tree.cmd")
	require.NoError(t, err)
	assert.Equal(t, res.Command, string(stored))
}

func TestCompileNode(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Handler(), http.MethodPost, "/compile/node/mesh?graph=job", sceneDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res compile.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "job_command_node.cmd", res.Buffer)
	assert.Equal(t, "/data/bunny.obj", res.Command)
}

func TestCompileErrors(t *testing.T) {
	noRoot := `{"name": "g", "nodes": [{"id": "mesh", "kind": "obj"}]}`
	badField := `{"name": "g", "nodes": [
		{"id": "s", "kind": "spheres", "config": {"format": "PLY"}},
		{"id": "v", "kind": "render_viewer"}
	], "links": [{"from": "s", "to": "v"}]}`

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/compile/tree", "{", http.StatusBadRequest, "INVALID_FORMAT"},
		{"no render target", "/compile/tree", noRoot, http.StatusUnprocessableEntity, "NO_ROOT"},
		{"bad node config", "/compile/tree", badField, http.StatusUnprocessableEntity, "NODE_FRAGMENT"},
		{"unknown node", "/compile/node/ghost", sceneDoc, http.StatusNotFound, "NOT_FOUND"},
		{"bad graph name", "/compile/tree?graph=../x", sceneDoc, http.StatusBadRequest, "INVALID_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			w := do(t, s.Handler(), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, string(body.Code))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestUnnamedGraphGetsDefaultName(t *testing.T) {
	s, _ := newTestServer(t)
	doc := strings.Replace(sceneDoc, `"name": "scene",`, "", 1)
	w := do(t, s.Handler(), http.MethodPost, "/compile/tree", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"buffer":"untitled_command_tree.cmd"`)
}

func TestBuffers(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "scene_command_tree.cmd", []byte("hsViewer a.obj")))
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/buffers", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"buffers": ["scene_command_tree.cmd"]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/buffers/scene_command_tree.cmd", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hsViewer a.obj", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodDelete, "/buffers/scene_command_tree.cmd", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/buffers/scene_command_tree.cmd", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/buffers", "")
	assert.JSONEq(t, `{"buffers": []}`, w.Body.String())
}

func TestRecompile(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Handler(), http.MethodPost, "/recompile", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	results := make(chan *compile.Result, 4)
	g := graph.New("live")
	require.NoError(t, g.AddNode(graph.Node{ID: "mesh", Kind: graph.KindOBJ}))
	g.SetActive("mesh")
	loop := watch.New(s.Compiler, watch.SourceFunc(func(context.Context) (*graph.Graph, error) { return g, nil }), time.Hour)
	loop.OnResult = func(res *compile.Result, err error) {
		if err == nil {
			results <- res
		}
	}
	s.Watch = loop

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	<-results

	w = do(t, s.Handler(), http.MethodPost, "/recompile", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case res := <-results:
		assert.Equal(t, "live_command_node.cmd", res.Buffer)
	case <-time.After(5 * time.Second):
		t.Fatal("recompile request did not trigger a tick")
	}
}

type fakeRunner map[string]string

func (f fakeRunner) Run(_ context.Context, _ settings.Cluster, command string) (string, error) {
	return f[command], nil
}

func TestListRemote(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/remote/karolina", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s.Lister = remote.NewLister(fakeRunner{
		"ls -p '/scratch/' | grep -e /": "runs/\n",
		"ls -p '/scratch/' | grep -v /": "vol.raw\n",
	}, nil, nil)
	s.Clusters = []settings.Cluster{{Name: "karolina", Host: "login", RemoteDir: "/scratch/"}}
	h := s.Handler()

	w = do(t, h, http.MethodGet, "/remote/karolina", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"dir": "/scratch/", "entries": [
		{"name": "..", "dir": true},
		{"name": "runs/", "dir": true},
		{"name": "vol.raw", "dir": false}
	]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/remote/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/remote/karolina?dir=/tmp;id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	defer observability.Reset()
	reg := prometheus.NewRegistry()
	observability.NewPrometheus(reg).Register()

	s, _ := newTestServer(t)
	s.Gatherer = reg
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/compile/tree", sceneDoc).Code)
	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hscompose_compiles_total")
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
