package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddLink] when the From node
	// does not exist, or when it has no output port.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddLink] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownPort is returned by [Graph.AddLink] when the target node has
	// no input port with the requested name.
	ErrUnknownPort = errors.New("unknown input port")

	// ErrPortFull is returned by [Graph.AddLink] when the target port already
	// carries as many links as it accepts.
	ErrPortFull = errors.New("input port is full")

	// ErrGraphHasCycle is returned by [Graph.Validate] when the links form a
	// directed cycle.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Config holds a node's configuration fields as decoded from a graph
// document. Typed access is provided by the node package.
type Config map[string]any

// Node is a configured unit of work in the graph.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID     string // Unique identifier within the graph
	Kind   Kind   // Closed kind tag; KindUnknown for unrecognized types
	Type   string // Kind name as written in the source document
	Label  string // Optional display label
	Config Config // Configuration fields (never nil after AddNode)
}

// DisplayName returns the label if set, otherwise the ID.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Link is a directed connection from a node's output port to another node's
// input port.
type Link struct {
	From     string // Source node ID
	FromPort string // Source port (always "Data" for the current kinds)
	To       string // Target node ID
	ToPort   string // Target input port name
}

// Graph is an arena of nodes and the links between them.
//
// The zero value is not usable - use New to create a valid Graph instance.
type Graph struct {
	name     string
	nodes    map[string]*Node
	order    []string
	links    []Link
	incoming map[string][]int // node ID -> indices into links
	active   string
}

// New creates an empty graph. The name identifies the graph and is used to
// derive buffer names.
func New(name string) *Graph {
	return &Graph{
		name:     name,
		nodes:    make(map[string]*Node),
		incoming: make(map[string][]int),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// SetName renames the graph.
func (g *Graph) SetName(name string) { g.name = name }

// Active returns the ID of the active (focused) node, or "" if none.
func (g *Graph) Active() string { return g.active }

// SetActive marks the node with the given ID as active. Unknown IDs clear
// the selection.
func (g *Graph) SetActive(id string) {
	if _, ok := g.nodes[id]; !ok {
		g.active = ""
		return
	}
	g.active = id
}

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the ID is
// empty, or ErrDuplicateNodeID if a node with the same ID already exists.
// The node's Config is initialized to an empty map if nil, and Type is
// filled from Kind when empty.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Config == nil {
		n.Config = Config{}
	}
	if n.Type == "" {
		n.Type = n.Kind.String()
	}
	node := &n
	g.nodes[n.ID] = node
	g.order = append(g.order, n.ID)
	return nil
}

// RemoveNode deletes a node together with every link touching it.
// Removing an unknown node is a no-op.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	g.links = slices.DeleteFunc(g.links, func(l Link) bool { return l.From == id || l.To == id })
	if g.active == id {
		g.active = ""
	}
	g.reindex()
}

// AddLink connects l.From's output to l.To's input port l.ToPort.
// FromPort and ToPort default to "Data" when empty.
//
// Returns ErrUnknownSourceNode if the source is missing or has no output,
// ErrUnknownTargetNode if the target is missing, ErrUnknownPort if the
// target has no such input, or ErrPortFull if the port's link limit is
// reached. Targets of an unrecognized kind accept any port.
func (g *Graph) AddLink(l Link) error {
	if l.FromPort == "" {
		l.FromPort = PortData
	}
	if l.ToPort == "" {
		l.ToPort = PortData
	}
	src, ok := g.nodes[l.From]
	if !ok || (src.Kind.Known() && !src.Kind.HasOutput()) {
		return ErrUnknownSourceNode
	}
	dst, ok := g.nodes[l.To]
	if !ok {
		return ErrUnknownTargetNode
	}
	if !dst.Kind.Known() {
		// Editor-only nodes (frames, reroutes) keep their links unchecked.
		// Upstream never walks them, so they cannot reach a compile.
		g.links = append(g.links, l)
		g.incoming[l.To] = append(g.incoming[l.To], len(g.links)-1)
		return nil
	}
	idx := slices.IndexFunc(dst.Kind.Inputs(), func(p Port) bool { return p.Name == l.ToPort })
	if idx < 0 {
		return ErrUnknownPort
	}
	if len(g.LinksTo(l.To, l.ToPort)) >= dst.Kind.Inputs()[idx].Limit {
		return ErrPortFull
	}
	g.links = append(g.links, l)
	g.incoming[l.To] = append(g.incoming[l.To], len(g.links)-1)
	return nil
}

// RemoveLink removes the first link from→to on the given target port.
// No error is returned if the link does not exist.
func (g *Graph) RemoveLink(from, to, toPort string) {
	idx := slices.IndexFunc(g.links, func(l Link) bool {
		return l.From == from && l.To == to && l.ToPort == toPort
	})
	if idx < 0 {
		return
	}
	g.links = slices.Delete(g.links, idx, idx+1)
	g.reindex()
}

func (g *Graph) reindex() {
	g.incoming = make(map[string][]int, len(g.nodes))
	for i, l := range g.links {
		g.incoming[l.To] = append(g.incoming[l.To], i)
	}
}

// Node returns the node with the given ID and true, or nil and false if not
// found. The returned pointer refers to the node in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual nodes, so modifications affect the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Links returns a copy of all links in insertion order.
func (g *Graph) Links() []Link { return slices.Clone(g.links) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links in the graph.
func (g *Graph) LinkCount() int { return len(g.links) }

// LinksTo returns the links that end at the given node's port, in insertion
// order.
func (g *Graph) LinksTo(id, port string) []Link {
	var out []Link
	for _, i := range g.incoming[id] {
		if g.links[i].ToPort == port {
			out = append(out, g.links[i])
		}
	}
	return out
}

// Upstream returns the IDs of the nodes feeding id, ordered by the node's
// declared input ports and, within a port, by link insertion order. A
// source linked twice appears twice.
func (g *Graph) Upstream(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var out []string
	for _, p := range n.Kind.Inputs() {
		for _, l := range g.LinksTo(id, p.Name) {
			out = append(out, l.From)
		}
	}
	return out
}

// RenderTargets returns the render-target nodes in insertion order.
func (g *Graph) RenderTargets() []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind.IsRenderTarget() {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every link references existing nodes and that no
// cycle is reachable upstream of a render target. Cycles among orphan nodes
// are ignored since no compile visits them. Detection runs in O(N+E) using
// depth-first search with white/gray/black coloring.
func (g *Graph) Validate() error {
	for _, l := range g.links {
		if _, ok := g.nodes[l.From]; !ok {
			return ErrUnknownSourceNode
		}
		if _, ok := g.nodes[l.To]; !ok {
			return ErrUnknownTargetNode
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, up := range g.Upstream(id) {
			switch color[up] {
			case white:
				dfs(up)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, n := range g.RenderTargets() {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
