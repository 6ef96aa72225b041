package io

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclDocument struct {
	Graph *hclGraph  `hcl:"graph,block"`
	Nodes []*hclNode `hcl:"node,block"`
	Links []*hclLink `hcl:"link,block"`
}

type hclGraph struct {
	Name   string `hcl:"name,label"`
	Active string `hcl:"active,optional"`
}

type hclNode struct {
	Kind string   `hcl:"kind,label"`
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclLink struct {
	From     string `hcl:"from"`
	FromPort string `hcl:"from_port,optional"`
	To       string `hcl:"to"`
	ToPort   string `hcl:"to_port,optional"`
}

func decodeHCL(data []byte, filename string) (*document, error) {
	if filename == "" {
		filename = "graph.hcl"
	}
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, diags
	}

	doc := &document{}
	if raw.Graph != nil {
		doc.Name = raw.Graph.Name
		doc.Active = raw.Graph.Active
	}
	for _, n := range raw.Nodes {
		attrs, diags := n.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		dn := documentNode{ID: n.ID, Kind: n.Kind, Config: make(map[string]any, len(attrs))}
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("node %s: %s: %w", n.ID, name, err)
			}
			if name == "label" {
				if s, ok := native.(string); ok {
					dn.Label = s
					continue
				}
			}
			dn.Config[name] = native
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, l := range raw.Links {
		doc.Links = append(doc.Links, documentLink(*l))
	}
	return doc, nil
}

// ctyToNative converts a cty value to plain Go values. Whole numbers become
// int and other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
