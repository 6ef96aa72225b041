package io

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
)

// ImportFile reads the graph document at path. The format comes from the
// extension. A document without a name is named after the file.
func ImportFile(path string) (*graph.Graph, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	g, err := Read(file, f, path)
	if err != nil {
		return nil, err
	}
	if g.Name() == "" {
		g.SetName(NameFromPath(path))
	}
	if err := errors.ValidateGraphName(g.Name()); err != nil {
		return nil, err
	}
	return g, nil
}

// NameFromPath derives a graph name from a document path: the base name
// without extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExportJSON writes g as JSON to path.
func ExportJSON(g *graph.Graph, path string) error {
	return writeFile(g, path, FormatJSON)
}

// Save writes g back to path in the format given by its extension. The file
// is replaced atomically. HCL documents cannot be saved.
func Save(g *graph.Graph, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if !f.Writable() {
		return errors.New(errors.ErrCodeUnsupported, "cannot save %s: HCL graph documents are read-only", filepath.Base(path))
	}
	return writeFile(g, path, f)
}

func writeFile(g *graph.Graph, path string, f Format) error {
	var buf bytes.Buffer
	if err := Write(g, &buf, f); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
