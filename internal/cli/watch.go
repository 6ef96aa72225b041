package cli

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/server"
	"github.com/braas-hpc/hscompose/pkg/settings"
	"github.com/braas-hpc/hscompose/pkg/watch"
)

type watchOptions struct {
	frequency   float64
	mode        string
	metricsAddr string
}

// watchCommand creates the watch command, the auto-generate loop.
func (c *CLI) watchCommand() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [graph]",
		Short: "Recompile a graph continuously",
		Long: `Recompile a graph on a timer and whenever its file changes.

In node mode (the default) each tick compiles the graph's active node into
<graph>_command_node.cmd; in tree mode it compiles the render target's tree.
Ticks run --frequency times per second while there is something to compile,
and fall back to the settings' fallback_interval otherwise.

With --metrics-addr the HTTP API (including /metrics and /recompile) is
served alongside the loop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.frequency, "frequency", 0, "ticks per second (default from settings)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(compile.ModeNode), "compile mode: node or tree")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve the HTTP API and metrics on this address")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, path string, opts watchOptions) error {
	mode, err := compile.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	st, err := c.loadSettings()
	if err != nil {
		return err
	}
	if opts.frequency > 0 {
		st.Frequency = opts.frequency
	}
	if err := st.Validate(); err != nil {
		return err
	}

	var reg *prometheus.Registry
	if opts.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		observability.NewPrometheus(reg).Register()
		defer observability.Reset()
	}

	store, err := c.openStore(ctx, st)
	if err != nil {
		return err
	}
	defer store.Close()

	compiler := c.newCompiler(st, path, store)
	loop := c.newLoop(compiler, path, mode, st)

	go func() {
		if err := watch.WatchFile(ctx, path, loop.Request, c.Logger); err != nil && ctx.Err() == nil {
			c.Logger.Warn("file watching disabled", "err", err)
		}
	}()
	if reg != nil {
		srv := &server.Server{Compiler: compiler, Store: store, Watch: loop, Clusters: st.Clusters, Gatherer: reg, Logger: c.Logger}
		go func() {
			if err := srv.ListenAndServe(ctx, opts.metricsAddr); err != nil && ctx.Err() == nil {
				c.Logger.Error("http server", "err", err)
			}
		}()
	}

	printInfo("Watching %s (%s mode, every %s)", StyleHighlight.Render(path), mode, loop.Interval)
	err = loop.Run(ctx)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newLoop wires a watch loop that logs each compile.
func (c *CLI) newLoop(compiler *compile.Compiler, path string, mode compile.Mode, st settings.Settings) *watch.Loop {
	loop := watch.New(compiler, watch.FileSource(path), st.Interval())
	loop.Mode = mode
	loop.FallbackInterval = st.FallbackInterval.Duration
	loop.Logger = c.Logger

	var last string
	loop.OnResult = func(res *compile.Result, err error) {
		if err != nil {
			c.Logger.Warn("compile failed", "err", err)
			last = ""
			return
		}
		if res.Command != last {
			c.Logger.Info("updated", "buffer", res.Buffer, "node", res.Root, "took", res.Duration.Round(time.Microsecond))
			c.Logger.Debug("command", "cmd", res.Command)
			last = res.Command
		}
	}
	return loop
}

