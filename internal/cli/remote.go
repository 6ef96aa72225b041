package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/graph"
	hsio "github.com/braas-hpc/hscompose/pkg/io"
	"github.com/braas-hpc/hscompose/pkg/remote"
	"github.com/braas-hpc/hscompose/pkg/settings"
)

type remoteOptions struct {
	cluster string
	noCache bool
}

// remoteCommand creates the remote command group.
func (c *CLI) remoteCommand() *cobra.Command {
	var opts remoteOptions

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Browse and upload to cluster presets over SSH",
		Long: `Browse cluster file systems and upload compiled commands.

Clusters are configured as [[cluster]] presets in the settings file; --cluster
picks one by name, the first preset is used otherwise.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.cluster, "cluster", "c", "", "cluster preset name")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "do not cache directory listings")

	cmd.AddCommand(c.remoteListCommand(&opts))
	cmd.AddCommand(c.remoteBrowseCommand(&opts))
	cmd.AddCommand(c.remotePushCommand(&opts))

	return cmd
}

// remoteSession bundles what the remote subcommands share.
type remoteSession struct {
	settings settings.Settings
	preset   settings.Cluster
	runner   *remote.SSHRunner
	lister   *remote.Lister
	close    func()
}

func (c *CLI) openRemote(opts *remoteOptions) (*remoteSession, error) {
	st, err := c.loadSettings()
	if err != nil {
		return nil, err
	}
	preset, err := st.Cluster(opts.cluster)
	if err != nil {
		return nil, err
	}
	lc, err := newCache(opts.noCache)
	if err != nil {
		return nil, err
	}
	runner := remote.NewSSHRunner(c.Logger)
	return &remoteSession{
		settings: st,
		preset:   preset,
		runner:   runner,
		lister:   remote.NewLister(runner, lc, c.Logger),
		close: func() {
			runner.Close()
			lc.Close()
		},
	}, nil
}

func startDir(preset settings.Cluster, arg string) string {
	switch {
	case arg != "":
		return arg
	case preset.RemoteDir != "":
		return preset.RemoteDir
	}
	return "/"
}

func (c *CLI) remoteListCommand(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := c.openRemote(opts)
			if err != nil {
				return err
			}
			defer rs.close()

			dir := startDir(rs.preset, firstArg(args))
			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Listing %s on %s...", dir, rs.preset.Name))
			spinner.Start()
			entries, err := rs.lister.List(cmd.Context(), rs.preset, dir)
			spinner.Stop()
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.Dir {
					fmt.Fprintln(stdout, listDirStyle.Render(e.Name))
				} else {
					fmt.Fprintln(stdout, e.Name)
				}
			}
			return nil
		},
	}
}

func (c *CLI) remoteBrowseCommand(opts *remoteOptions) *cobra.Command {
	var nodeID, dir string

	cmd := &cobra.Command{
		Use:   "browse [graph]",
		Short: "Pick a remote file or directory for a node",
		Long: `Browse the cluster interactively. The chosen file is stored as the node's
file_path_remote and the directory as its dir_path_remote, and the graph
document is saved. The node defaults to the graph's active node.

Without a graph argument the chosen path is only printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), opts, firstArg(args), nodeID, dir)
		},
	}
	cmd.Flags().StringVar(&nodeID, "node", "", "node to update (default: active node)")
	cmd.Flags().StringVar(&dir, "dir", "", "start directory")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, opts *remoteOptions, graphPath, nodeID, dir string) error {
	var (
		g *graph.Graph
		n *graph.Node
	)
	if graphPath != "" {
		var err error
		if g, err = loadGraph(graphPath); err != nil {
			return err
		}
		if nodeID == "" {
			nodeID = g.Active()
		}
		var ok bool
		if n, ok = g.Node(nodeID); !ok {
			return errors.New(errors.ErrCodeNotFound, "node %q not found in graph %q", nodeID, g.Name())
		}
		if dir == "" {
			if v, ok := n.Config[remote.FieldDirPathRemote].(string); ok && v != "" {
				dir = v
			}
		}
	}

	rs, err := c.openRemote(opts)
	if err != nil {
		return err
	}
	defer rs.close()

	list := func(ctx context.Context, d string) ([]remote.Entry, error) {
		return rs.lister.List(ctx, rs.preset, d)
	}
	model := NewBrowserModel(ctx, rs.preset.Name, startDir(rs.preset, dir), list)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	sel := final.(BrowserModel).Selected
	if sel == nil {
		printInfo("Nothing selected")
		return nil
	}

	if n == nil {
		if sel.File != "" {
			fmt.Fprintln(stdout, sel.File)
		} else {
			fmt.Fprintln(stdout, sel.Dir)
		}
		return nil
	}
	if sel.Dir != "" {
		n.Config[remote.FieldDirPathRemote] = sel.Dir
		printKeyValue(remote.FieldDirPathRemote, sel.Dir)
	}
	if sel.File != "" {
		n.Config[remote.FieldFilePathRemote] = sel.File
		printKeyValue(remote.FieldFilePathRemote, sel.File)
	}
	if !rs.settings.Remote {
		printWarning("remote mode is off; compile with --remote to use these paths")
	}
	if err := hsio.Save(g, graphPath); err != nil {
		return err
	}
	printSuccess("Updated %s in %s", n.ID, graphPath)
	return nil
}

func (c *CLI) remotePushCommand(opts *remoteOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "push [graph|buffer]",
		Short: "Upload a compiled command buffer to the cluster",
		Long: `Upload a buffer to the cluster with scp. A graph name uploads its tree
buffer. The target directory defaults to the preset's remote_dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rs, err := c.openRemote(opts)
			if err != nil {
				return err
			}
			defer rs.close()

			store, err := c.openStore(ctx, rs.settings)
			if err != nil {
				return err
			}
			defer store.Close()

			name := bufferName(args[0])
			data, err := readBuffer(ctx, store, name)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Connecting to %s...", rs.preset.Name))
			spinner.Start()
			if _, err := rs.runner.Client(ctx, rs.preset); err != nil {
				spinner.StopWithError("Connection failed")
				return err
			}
			spinner.SetMessage(fmt.Sprintf("Uploading %s to %s...", name, rs.preset.Name))
			target, err := remote.NewUploader(rs.runner, c.Logger).Push(ctx, rs.preset, dir, name, data)
			if err != nil {
				spinner.StopWithError("Upload failed")
				return err
			}
			spinner.StopWithSuccess("Uploaded " + name)
			printFile(rs.preset.Name + ":" + target)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "remote directory")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
