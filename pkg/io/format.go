package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"unsupported graph document %q (want .json, .yaml, .toml or .hcl)", filepath.Base(path))
}

// Writable reports whether graphs can be written in f.
func (f Format) Writable() bool { return f != FormatHCL }

// Read decodes a graph document in format f from r. filename is used in HCL
// diagnostics only.
func Read(r io.Reader, f Format, filename string) (*graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var doc *document
	switch f {
	case FormatJSON:
		doc, err = decodeJSON(data)
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatTOML:
		doc, err = decodeTOML(data)
	case FormatHCL:
		doc, err = decodeHCL(data, filename)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", f)
	}
	g, err := doc.toGraph()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph")
	}
	return g, nil
}

// Write encodes g in format f to w.
func Write(g *graph.Graph, w io.Writer, f Format) error {
	doc := fromGraph(g)
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatHCL:
		return errors.New(errors.ErrCodeUnsupported, "HCL graph documents are read-only")
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
}

// ReadJSON decodes a JSON graph document from r.
func ReadJSON(r io.Reader) (*graph.Graph, error) { return Read(r, FormatJSON, "") }

// WriteJSON encodes g as an indented JSON document.
func WriteJSON(g *graph.Graph, w io.Writer) error { return Write(g, w, FormatJSON) }

// MarshalJSON returns g as a JSON document.
func MarshalJSON(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeJSON(data []byte) (*document, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	for i := range doc.Nodes {
		doc.Nodes[i].Config = normalizeMap(doc.Nodes[i].Config)
	}
	return &doc, nil
}

func decodeYAML(data []byte) (*document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for i := range doc.Nodes {
		doc.Nodes[i].Config = normalizeMap(doc.Nodes[i].Config)
	}
	return &doc, nil
}

func decodeTOML(data []byte) (*document, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	for i := range doc.Nodes {
		doc.Nodes[i].Config = normalizeMap(doc.Nodes[i].Config)
	}
	return &doc, nil
}

// normalizeMap converts decoder-specific scalar types (json.Number, int64)
// to int or float64 so configs compare equal across formats.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case int64:
		return int(x)
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		return normalizeMap(x)
	}
	return v
}
