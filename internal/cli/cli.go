// Package cli implements the hscompose command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/buildinfo"
	"github.com/braas-hpc/hscompose/pkg/cache"
	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/graph"
	hsio "github.com/braas-hpc/hscompose/pkg/io"
	"github.com/braas-hpc/hscompose/pkg/settings"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "hscompose"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the settings file location (--config).
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "hscompose compiles HayStack node graphs into renderer command lines",
		Long: `hscompose turns a HayStack scene graph (data loaders, camera, transfer
function, properties and a render target) into the command line that launches
the HayStack renderer, and keeps that command in a named buffer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "settings file (default $XDG_CONFIG_HOME/hscompose/config.toml)")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.bufferCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadSettings reads the settings file named by --config, or the default
// location.
func (c *CLI) loadSettings() (settings.Settings, error) {
	path := c.ConfigPath
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return settings.Settings{}, err
		}
		path = p
	}
	st, err := settings.Load(path)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	c.Logger.Debug("settings loaded", "path", path, "remote", st.Remote, "buffer", st.Buffer.Backend)
	return st, nil
}

// openStore opens the buffer backend configured in st.
func (c *CLI) openStore(ctx context.Context, st settings.Settings) (buffer.Store, error) {
	store, err := buffer.Open(ctx, st.Buffer)
	if err != nil {
		return nil, fmt.Errorf("open buffer store: %w", err)
	}
	c.Logger.Debug("buffer store", "backend", buffer.Describe(store))
	return store, nil
}

// newCompiler builds a compiler for the graph document at graphPath. Local
// relative paths in the graph resolve against the document's directory.
func (c *CLI) newCompiler(st settings.Settings, graphPath string, sink compile.Sink) *compile.Compiler {
	return compile.New(st.Env(filepath.Dir(graphPath)), sink, c.Logger)
}

func loadGraph(path string) (*graph.Graph, error) {
	g, err := hsio.ImportFile(path)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	return g, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
