package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/compile"
)

type compileOptions struct {
	node    string
	nodeSet bool
	print   bool
	json    bool
	remote  bool
	local   bool
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOptions

	cmd := &cobra.Command{
		Use:   "compile [graph]",
		Short: "Compile a graph into a HayStack command line",
		Long: `Compile a graph document (JSON, YAML, TOML or HCL) into the HayStack
command line and write it to the graph's buffer.

Without --node the whole tree feeding the render target is compiled into
<graph>_command_tree.cmd. With --node only that node's own arguments are
compiled into <graph>_command_node.cmd; --node "" uses the graph's active
node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.nodeSet = cmd.Flags().Changed("node")
			return c.runCompile(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.node, "node", "", "compile a single node (empty = active node)")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "print the command")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "use remote paths regardless of settings")
	cmd.Flags().BoolVar(&opts.local, "local", false, "use local paths regardless of settings")
	cmd.MarkFlagsMutuallyExclusive("remote", "local")

	return cmd
}

func (c *CLI) runCompile(ctx context.Context, path string, opts compileOptions) error {
	st, err := c.loadSettings()
	if err != nil {
		return err
	}
	switch {
	case opts.remote:
		st.Remote = true
	case opts.local:
		st.Remote = false
	}

	g, err := loadGraph(path)
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx, st)
	if err != nil {
		return err
	}
	defer store.Close()

	prog := newProgress(c.Logger)
	mode := compile.ModeTree
	if opts.nodeSet {
		mode = compile.ModeNode
	}
	res, err := c.newCompiler(st, path, store).Compile(ctx, g, mode, opts.node)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compiled %s (%s, %d tokens)", g.Name(), res.Mode, len(res.Tokens)))

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printSuccess("Wrote %s", StyleHighlight.Render(res.Buffer))
	if opts.print {
		printCommand(res.Command)
	}
	for _, m := range res.Materials {
		printDetail("material: %s", m)
	}
	if res.Mode == compile.ModeTree {
		printNextStep("Run it", fmt.Sprintf("%s run %s", appName, path))
	}
	return nil
}
