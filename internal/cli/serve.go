package cli

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/remote"
	"github.com/braas-hpc/hscompose/pkg/server"
	"github.com/braas-hpc/hscompose/pkg/watch"
)

type serveOptions struct {
	addr    string
	watch   string
	mode    string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile HTTP API",
		Long: `Serve the local HTTP API used by editing surfaces.

POST a graph document to /compile/tree or /compile/node/{id} to compile it;
buffers are written to the configured store. With --watch a graph file is
also recompiled continuously and POST /recompile triggers an immediate tick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:7070", "listen address")
	cmd.Flags().StringVar(&opts.watch, "watch", "", "graph file to recompile continuously")
	cmd.Flags().StringVar(&opts.mode, "mode", string(compile.ModeNode), "watch compile mode: node or tree")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the remote listing cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	st, err := c.loadSettings()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	observability.NewPrometheus(reg).Register()
	defer observability.Reset()

	store, err := c.openStore(ctx, st)
	if err != nil {
		return err
	}
	defer store.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	srv := &server.Server{
		Compiler: compile.New(st.Env(cwd), store, c.Logger),
		Store:    store,
		Clusters: st.Clusters,
		Gatherer: reg,
		Logger:   c.Logger,
	}

	if len(st.Clusters) > 0 {
		lc, err := newCache(opts.noCache)
		if err != nil {
			return err
		}
		defer lc.Close()
		runner := remote.NewSSHRunner(c.Logger)
		defer runner.Close()
		srv.Lister = remote.NewLister(runner, lc, c.Logger)
	}

	if opts.watch != "" {
		mode, err := compile.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		loop := c.newLoop(c.newCompiler(st, opts.watch, store), opts.watch, mode, st)
		srv.Watch = loop
		go func() {
			if err := watch.WatchFile(ctx, opts.watch, loop.Request, c.Logger); err != nil && ctx.Err() == nil {
				c.Logger.Warn("file watching disabled", "err", err)
			}
		}()
		go func() { _ = loop.Run(ctx) }()
	}

	printInfo("Serving on %s", StyleHighlight.Render("http://"+opts.addr))
	err = srv.ListenAndServe(ctx, opts.addr)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
