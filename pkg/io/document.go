package io

import (
	"fmt"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

type document struct {
	Name   string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Active string         `json:"active,omitempty" yaml:"active,omitempty" toml:"active,omitempty"`
	Nodes  []documentNode `json:"nodes" yaml:"nodes" toml:"nodes"`
	Links  []documentLink `json:"links" yaml:"links" toml:"links"`
}

type documentNode struct {
	ID     string         `json:"id" yaml:"id" toml:"id"`
	Kind   string         `json:"kind" yaml:"kind" toml:"kind"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" toml:"config,omitempty"`
}

type documentLink struct {
	From     string `json:"from" yaml:"from" toml:"from"`
	FromPort string `json:"from_port,omitempty" yaml:"from_port,omitempty" toml:"from_port,omitempty"`
	To       string `json:"to" yaml:"to" toml:"to"`
	ToPort   string `json:"to_port,omitempty" yaml:"to_port,omitempty" toml:"to_port,omitempty"`
}

// toGraph builds a graph from a decoded document.
func (d *document) toGraph() (*graph.Graph, error) {
	g := graph.New(d.Name)
	for _, n := range d.Nodes {
		kind, _ := graph.ParseKind(n.Kind)
		nd := graph.Node{
			ID:     n.ID,
			Kind:   kind,
			Type:   n.Kind,
			Label:  n.Label,
			Config: graph.Config(n.Config),
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, l := range d.Links {
		link := graph.Link{From: l.From, FromPort: l.FromPort, To: l.To, ToPort: l.ToPort}
		if err := g.AddLink(link); err != nil {
			return nil, fmt.Errorf("link %s->%s: %w", l.From, l.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if d.Active != "" {
		if _, ok := g.Node(d.Active); !ok {
			return nil, fmt.Errorf("active node %s: %w", d.Active, graph.ErrUnknownTargetNode)
		}
		g.SetActive(d.Active)
	}
	return g, nil
}

// fromGraph captures g as a document. Kinds are written with their short
// names; unrecognized kinds keep the name they were read with.
func fromGraph(g *graph.Graph) *document {
	d := &document{
		Name:   g.Name(),
		Active: g.Active(),
		Nodes:  make([]documentNode, 0, g.NodeCount()),
		Links:  make([]documentLink, 0, g.LinkCount()),
	}
	for _, n := range g.Nodes() {
		kind := n.Type
		if n.Kind.Known() {
			kind = n.Kind.String()
		}
		var cfg map[string]any
		if len(n.Config) > 0 {
			cfg = map[string]any(n.Config)
		}
		d.Nodes = append(d.Nodes, documentNode{ID: n.ID, Kind: kind, Label: n.Label, Config: cfg})
	}
	for _, l := range g.Links() {
		dl := documentLink{From: l.From, To: l.To, ToPort: l.ToPort}
		if l.FromPort != graph.PortData {
			dl.FromPort = l.FromPort
		}
		d.Links = append(d.Links, dl)
	}
	return d
}
