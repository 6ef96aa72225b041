package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/errors"
)

const sceneJSON = `{
  "name": "scene",
  "nodes": [
    {"id": "vol", "kind": "raw_volume", "config": {"file_path": "/data/vol.raw", "num_parts": 4, "dims": [512, 512, 512]}},
    {"id": "viewer", "kind": "render_viewer", "config": {"file_path": "/opt/haystack/hsViewer"}}
  ],
  "links": [{"from": "vol", "to": "viewer"}]
}`

const sceneCommand = "/opt/haystack/hsViewer raw://4@/data/vol.raw:format=float:dims=512,512,512:channels=1"

// setup writes a settings file with a file buffer store and a scene graph
// into a temp dir, returning the config and graph paths.
func setup(t *testing.T) (config, graphPath string) {
	t.Helper()
	t.Setenv("HSCOMPOSE_REMOTE", "")
	t.Setenv("HSCOMPOSE_BUFFER_BACKEND", "")

	dir := t.TempDir()
	config = filepath.Join(dir, "config.toml")
	settings := "remote = false\nescape_drives = false\n\n[buffer]\nbackend = \"file\"\ndir = \"" +
		filepath.ToSlash(filepath.Join(dir, "buffers")) + "\"\n"
	if err := os.WriteFile(config, []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}
	graphPath = filepath.Join(dir, "scene.json")
	if err := os.WriteFile(graphPath, []byte(sceneJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return config, graphPath
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prev := stdout
	stdout = &out
	defer func() { stdout = prev }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", config}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompilePrint(t *testing.T) {
	config, graphPath := setup(t)

	out, err := execute(t, config, "compile", "--print", graphPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(out, "scene_command_tree.cmd") {
		t.Errorf("output missing buffer name:\n%s", out)
	}
	if !strings.Contains(out, sceneCommand) {
		t.Errorf("output missing command:\n%s", out)
	}
}

func TestCompileJSON(t *testing.T) {
	config, graphPath := setup(t)

	out, err := execute(t, config, "compile", "--json", graphPath)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var res struct {
		Mode    string   `json:"mode"`
		Root    string   `json:"root"`
		Buffer  string   `json:"buffer"`
		Command string   `json:"command"`
		Visited []string `json:"visited"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Root != "viewer" || res.Buffer != "scene_command_tree.cmd" || res.Command != sceneCommand {
		t.Errorf("result = %+v", res)
	}
	if len(res.Visited) != 2 {
		t.Errorf("visited = %v, want 2 nodes", res.Visited)
	}
}

func TestCompileNode(t *testing.T) {
	config, graphPath := setup(t)

	if _, err := execute(t, config, "compile", "--node", "vol", graphPath); err != nil {
		t.Fatalf("compile node: %v", err)
	}
	out, err := execute(t, config, "buffer", "show", "scene_command_node.cmd")
	if err != nil {
		t.Fatalf("buffer show: %v", err)
	}
	if strings.TrimSpace(out) != "raw://4@/data/vol.raw:format=float:dims=512,512,512:channels=1" {
		t.Errorf("node buffer = %q", out)
	}
}

func TestCompileNoRoot(t *testing.T) {
	config, _ := setup(t)
	path := filepath.Join(t.TempDir(), "lonely.json")
	doc := `{"name": "lonely", "nodes": [{"id": "mesh", "kind": "umesh", "config": {"file_path": "/a.umesh"}}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, config, "compile", path)
	if !errors.Is(err, errors.ErrCodeNoRoot) {
		t.Errorf("err = %v, want NO_ROOT", err)
	}
}

func TestBufferLifecycle(t *testing.T) {
	config, graphPath := setup(t)

	if _, err := execute(t, config, "compile", graphPath); err != nil {
		t.Fatalf("compile: %v", err)
	}

	out, err := execute(t, config, "buffer", "list")
	if err != nil {
		t.Fatalf("buffer list: %v", err)
	}
	if !strings.Contains(out, "scene_command_tree.cmd") {
		t.Errorf("list = %q", out)
	}

	out, err = execute(t, config, "buffer", "show", "scene")
	if err != nil {
		t.Fatalf("buffer show: %v", err)
	}
	if strings.TrimSpace(out) != sceneCommand {
		t.Errorf("show = %q, want %q", out, sceneCommand)
	}

	if _, err := execute(t, config, "buffer", "clear"); err != nil {
		t.Fatalf("buffer clear: %v", err)
	}
	_, err = execute(t, config, "buffer", "show", "scene")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("show after clear: err = %v, want NOT_FOUND", err)
	}
}

func TestRunDryRun(t *testing.T) {
	config, graphPath := setup(t)

	out, err := execute(t, config, "run", "--dry-run", graphPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"argv[0]", "/opt/haystack/hsViewer", "argv[1]", "raw://4@/data/vol.raw"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
}

func TestRunFromMissingBuffer(t *testing.T) {
	config, _ := setup(t)

	_, err := execute(t, config, "run", "--dry-run", "--from-buffer", "nothing")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestVisualizeDOT(t *testing.T) {
	config, graphPath := setup(t)
	output := filepath.Join(t.TempDir(), "scene.dot")

	if _, err := execute(t, config, "visualize", "-f", "dot", "-o", output, graphPath); err != nil {
		t.Fatalf("visualize: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.HasPrefix(dot, `digraph "scene"`) {
		t.Errorf("dot = %q", dot)
	}
	if !strings.Contains(dot, `"vol" -> "viewer"`) {
		t.Errorf("dot missing edge:\n%s", dot)
	}
}

func TestVisualizeUnknownFormat(t *testing.T) {
	config, graphPath := setup(t)
	if _, err := execute(t, config, "visualize", "-f", "gif", graphPath); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestSplitCommand(t *testing.T) {
	t.Setenv("HS_ROOT", "/opt/hs")

	tests := []struct {
		name    string
		in      string
		windows bool
		want    []string
		wantErr bool
	}{
		{"plain", "hsViewer a.umesh -o out.png", false, []string{"hsViewer", "a.umesh", "-o", "out.png"}, false},
		{"quoted", `hsViewer "my file.obj"`, false, []string{"hsViewer", "my file.obj"}, false},
		{"env", "$HS_ROOT/hsViewer x", false, []string{"/opt/hs/hsViewer", "x"}, false},
		{"trailing newline", "hsViewer\n", false, []string{"hsViewer"}, false},
		{"windows backslashes", `C:\hs\hsViewer.exe C:\data\a.umesh`, true, []string{`C:\hs\hsViewer.exe`, `C:\data\a.umesh`}, false},
		{"windows drive escape", `hsViewer raw://4@C$/data/v.raw "C:\my data\a.obj"`, true, []string{"hsViewer", "raw://4@C$/data/v.raw", `C:\my data\a.obj`}, false},
		{"empty", "  ", false, nil, true},
		{"unterminated quote", `hsViewer "open`, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitCommand(tt.in, tt.windows)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitCommand(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitCommand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCommandArgsKeepsTokens(t *testing.T) {
	res := &compile.Result{
		Executable: `C:\hs\hsViewer.exe`,
		Tokens:     []string{"raw://4@C$/data/v.raw", "", `C:\data\a.umesh`},
	}
	want := []string{`C:\hs\hsViewer.exe`, "raw://4@C$/data/v.raw", `C:\data\a.umesh`}
	if got := commandArgs(res); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("commandArgs() = %q, want %q", got, want)
	}

	if got := commandArgs(&compile.Result{}); len(got) != 0 {
		t.Errorf("commandArgs(empty) = %q, want none", got)
	}
}

func TestBufferName(t *testing.T) {
	tests := map[string]string{
		"scene":                  "scene_command_tree.cmd",
		"scene_command_node.cmd": "scene_command_node.cmd",
	}
	for in, want := range tests {
		if got := bufferName(in); got != want {
			t.Errorf("bufferName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"ab/cdef.json", "ab/0123.json", "ff/9999.json"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir: %v", err)
	}
	if n != 3 {
		t.Errorf("cleared %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left", len(entries))
	}

	if n, err := clearDir(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Errorf("clearDir(missing) = %d, %v", n, err)
	}
}

func TestCachePath(t *testing.T) {
	config, _ := setup(t)
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	out, err := execute(t, config, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(cacheHome, appName) {
		t.Errorf("cache path = %q", out)
	}
}
