package compile

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
	"github.com/braas-hpc/hscompose/pkg/node"
	"github.com/braas-hpc/hscompose/pkg/observability"
)

// Mode selects whole-graph or single-node compilation.
type Mode string

const (
	ModeTree Mode = "tree"
	ModeNode Mode = "node"
)

// ParseMode accepts "tree" or "node".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeTree:
		return ModeTree, nil
	case ModeNode:
		return ModeNode, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown compile mode %q (want tree or node)", s)
}

// Sink receives compiled commands. [buffer.Store] implementations satisfy it.
type Sink interface {
	Write(ctx context.Context, name string, content []byte) error
}

// Compiler compiles graphs with a fixed environment.
//
// The zero value is usable: it compiles in local mode with no port override
// and discards the result instead of writing a buffer.
type Compiler struct {
	Env    node.Env
	Sink   Sink
	Logger *log.Logger
}

// New creates a compiler writing to sink. A nil logger means log.Default().
func New(env node.Env, sink Sink, logger *log.Logger) *Compiler {
	return &Compiler{Env: env, Sink: sink, Logger: logger}
}

func (c *Compiler) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// CompileTree compiles the whole graph reachable from its render target and
// replaces the "<graph>_command_tree.cmd" buffer with the result.
func (c *Compiler) CompileTree(ctx context.Context, g *graph.Graph) (*Result, error) {
	return c.run(ctx, g, ModeTree, func(w *walker) (*graph.Node, error) {
		root, err := FindRoot(g)
		if err != nil {
			return nil, err
		}
		return root, w.visit(ctx, root.ID)
	})
}

// CompileNode compiles only the node with the given ID, or the active node
// when id is empty, and replaces the "<graph>_command_node.cmd" buffer.
// Upstream nodes are ignored.
func (c *Compiler) CompileNode(ctx context.Context, g *graph.Graph, id string) (*Result, error) {
	return c.run(ctx, g, ModeNode, func(w *walker) (*graph.Node, error) {
		if id == "" {
			id = g.Active()
		}
		if id == "" {
			return nil, errors.New(errors.ErrCodeNoRoot, "graph %q has no active node", g.Name())
		}
		n, ok := g.Node(id)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "node %q not found in graph %q", id, g.Name())
		}
		return n, w.emit(n)
	})
}

// Compile dispatches on mode. For ModeNode, id selects the node.
func (c *Compiler) Compile(ctx context.Context, g *graph.Graph, mode Mode, id string) (*Result, error) {
	if mode == ModeTree {
		return c.CompileTree(ctx, g)
	}
	return c.CompileNode(ctx, g, id)
}

func (c *Compiler) run(ctx context.Context, g *graph.Graph, mode Mode, walk func(*walker) (*graph.Node, error)) (*Result, error) {
	start := time.Now()
	hooks := observability.Compile()
	hooks.OnCompileStart(ctx, g.Name(), string(mode))

	res, err := c.assemble(g, mode, walk)
	if err == nil && c.Sink != nil {
		if werr := c.Sink.Write(ctx, res.Buffer, []byte(res.Command)); werr != nil {
			err = errors.Wrap(errors.ErrCodeBuffer, werr, "write buffer %s", res.Buffer)
		}
	}

	elapsed := time.Since(start)
	tokens := 0
	if res != nil {
		res.Duration = elapsed
		tokens = len(res.Tokens)
	}
	hooks.OnCompileComplete(ctx, g.Name(), string(mode), tokens, elapsed, err)
	if err != nil {
		c.logger().Error("compile failed", "graph", g.Name(), "mode", mode, "err", err)
		return nil, err
	}

	c.logger().Debug("compiled",
		"graph", g.Name(),
		"mode", mode,
		"buffer", res.Buffer,
		"nodes", len(res.Visited),
		"tokens", len(res.Tokens),
		"duration", elapsed)
	return res, nil
}

func (c *Compiler) assemble(g *graph.Graph, mode Mode, walk func(*walker) (*graph.Node, error)) (*Result, error) {
	w := &walker{g: g, env: c.Env, seen: make(map[string]bool)}
	root, err := walk(w)
	if err != nil {
		return nil, err
	}

	exe, err := node.ExecutablePath(root, c.Env)
	if err != nil {
		return nil, fragmentError(root, err)
	}

	name := buffer.TreeName(g.Name())
	if mode == ModeNode {
		name = buffer.NodeName(g.Name())
	}

	return &Result{
		RunID:      uuid.New(),
		Graph:      g.Name(),
		Mode:       mode,
		Root:       root.ID,
		Buffer:     name,
		Executable: exe,
		Command:    Join(exe, w.tokens),
		Tokens:     w.tokens,
		Visited:    w.order,
		Materials:  w.materials,
	}, nil
}

// Join builds the command line: exe followed by tokens, separated by single
// spaces. Empty parts are dropped.
func Join(exe string, tokens []string) string {
	parts := make([]string, 0, len(tokens)+1)
	if exe != "" {
		parts = append(parts, exe)
	}
	for _, t := range tokens {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// FindRoot picks the render target to compile from: the active node when
// it is a render target, otherwise the graph's only render target.
func FindRoot(g *graph.Graph) (*graph.Node, error) {
	if n, ok := g.Node(g.Active()); ok && n.Kind.IsRenderTarget() {
		return n, nil
	}
	targets := g.RenderTargets()
	switch len(targets) {
	case 1:
		return targets[0], nil
	case 0:
		return nil, errors.New(errors.ErrCodeNoRoot, "graph %q has no render node", g.Name())
	}
	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	return nil, errors.New(errors.ErrCodeNoRoot,
		"graph %q has %d render nodes (%s); select one as active",
		g.Name(), len(targets), strings.Join(ids, ", "))
}

func fragmentError(n *graph.Node, err error) error {
	return errors.Wrap(errors.ErrCodeNodeFragment, err, "node %s (%s)", n.DisplayName(), n.Kind)
}

// walker accumulates tokens for one compile.
type walker struct {
	g         *graph.Graph
	env       node.Env
	seen      map[string]bool
	order     []string
	tokens    []string
	materials []string
}

// visit emits id after everything upstream of it. Nodes already seen are
// skipped, which also stops on cycles.
func (w *walker) visit(ctx context.Context, id string) error {
	if w.seen[id] {
		return nil
	}
	w.seen[id] = true
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, up := range w.g.Upstream(id) {
		if err := w.visit(ctx, up); err != nil {
			return err
		}
	}
	n, ok := w.g.Node(id)
	if !ok {
		return nil
	}
	return w.emit(n)
}

func (w *walker) emit(n *graph.Node) error {
	w.order = append(w.order, n.ID)
	tokens, err := node.Fragment(n, w.env)
	if err != nil {
		return fragmentError(n, err)
	}
	escape := w.env.Paths.EscapeDrives && !n.Kind.IsRenderTarget()
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if escape {
			t = node.EscapeDrive(t)
		}
		w.tokens = append(w.tokens, t)
	}
	if m := node.Material(n); m != "" {
		w.materials = append(w.materials, m)
	}
	return nil
}
