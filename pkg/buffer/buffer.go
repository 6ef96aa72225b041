// Package buffer stores compiled commands under a name.
//
// A buffer is a whole-value text store: every [Store.Write] replaces the
// previous content in full. Compiles write to "<graph>_command_tree.cmd"
// and "<graph>_command_node.cmd" (see [TreeName] and [NodeName]).
//
// Backends:
//   - [MemoryStore]: in-process, for tests and the HTTP server
//   - [FileStore]: one file per buffer, the CLI default
//   - [RedisStore]: shared buffers for several editors or hosts
//   - [MongoStore]: one document per buffer
//
// [Open] picks a backend from a [Config].
package buffer

import (
	"context"
	"errors"
	"strings"

	hserrors "github.com/braas-hpc/hscompose/pkg/errors"
)

// ErrNotFound is returned by [Store.Read] when the buffer does not exist.
var ErrNotFound = errors.New("buffer not found")

// Buffer name suffixes.
const (
	TreeSuffix = "_command_tree.cmd"
	NodeSuffix = "_command_node.cmd"
)

// Store is a named text store for compiled commands.
type Store interface {
	// Write replaces the buffer's content, creating it if needed.
	Write(ctx context.Context, name string, content []byte) error

	// Read returns the buffer's content or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Delete removes a buffer. Deleting a missing buffer is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the buffer names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}

// TreeName returns the whole-graph buffer name for graphName.
func TreeName(graphName string) string { return graphName + TreeSuffix }

// NodeName returns the single-node buffer name for graphName.
func NodeName(graphName string) string { return graphName + NodeSuffix }

// GraphOf returns the graph name a buffer belongs to, or "" for names that
// do not follow the compile naming scheme.
func GraphOf(name string) string {
	for _, suffix := range []string{TreeSuffix, NodeSuffix} {
		if g, ok := strings.CutSuffix(name, suffix); ok {
			return g
		}
	}
	return ""
}

func checkName(name string) error {
	if err := hserrors.ValidateGraphName(name); err != nil {
		return hserrors.Wrap(hserrors.ErrCodeInvalidName, err, "invalid buffer name %q", name)
	}
	return nil
}
