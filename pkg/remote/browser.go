package remote

import (
	"path"
	"strings"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

// Browser is a cursor over a remote directory tree.
type Browser struct {
	path string
}

// NewBrowser starts at start, or "/" when start is empty.
func NewBrowser(start string) *Browser {
	if start == "" {
		start = "/"
	}
	return &Browser{path: start}
}

// Path returns the current directory.
func (b *Browser) Path() string { return b.path }

// Enter moves into name, or to the parent when name is "..". A "/" is
// inserted unless the current path already ends with one.
func (b *Browser) Enter(name string) string {
	if name == Up {
		return b.Up()
	}
	b.path = joinRemote(b.path, name)
	return b.path
}

// Up moves to the parent directory. The result always ends with "/", and
// the root stays "/".
func (b *Browser) Up() string {
	p := strings.TrimSuffix(b.path, "/")
	if p == "" {
		b.path = "/"
		return b.path
	}
	parent := path.Dir(p)
	if parent == "." {
		parent = ""
	}
	b.path = strings.TrimSuffix(parent, "/") + "/"
	return b.path
}

// Select returns the full path of a file in the current directory.
func (b *Browser) Select(file string) string {
	return joinRemote(b.path, file)
}

func joinRemote(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Remote path fields on node configs.
const (
	FieldFilePathRemote = "file_path_remote"
	FieldDirPathRemote  = "dir_path_remote"
)

// ApplyDir stores the browser's directory on n as its remote directory.
func (b *Browser) ApplyDir(n *graph.Node) {
	n.Config[FieldDirPathRemote] = b.path
}

// ApplyFile stores the selected file on n as its remote file path.
func (b *Browser) ApplyFile(n *graph.Node, file string) string {
	p := b.Select(file)
	n.Config[FieldFilePathRemote] = p
	return p
}
