package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/errors"
)

type runOptions struct {
	dryRun     bool
	fromBuffer bool
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [graph]",
		Short: "Compile a graph and launch HayStack locally",
		Long: `Compile the graph's tree and execute the compiled executable with its
tokens as arguments. Tokens are passed unchanged, so Windows paths and
drive escapes survive.

With --from-buffer the existing buffer is run without recompiling; the
argument is then a graph name or buffer name. The buffer is split with
shell quoting rules and, except on Windows, $VARIABLES are expanded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the arguments instead of running")
	cmd.Flags().BoolVar(&opts.fromBuffer, "from-buffer", false, "run the stored buffer without compiling")

	return cmd
}

func (c *CLI) runRun(ctx context.Context, arg string, opts runOptions) error {
	st, err := c.loadSettings()
	if err != nil {
		return err
	}
	st.Remote = false // a local launch needs local paths

	store, err := c.openStore(ctx, st)
	if err != nil {
		return err
	}
	defer store.Close()

	var argv []string
	if opts.fromBuffer {
		data, err := readBuffer(ctx, store, arg)
		if err != nil {
			return err
		}
		if argv, err = splitCommand(string(data), runtime.GOOS == "windows"); err != nil {
			return err
		}
	} else {
		g, err := loadGraph(arg)
		if err != nil {
			return err
		}
		res, err := c.newCompiler(st, arg, store).CompileTree(ctx, g)
		if err != nil {
			return err
		}
		if argv = commandArgs(res); len(argv) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "command is empty")
		}
	}

	if opts.dryRun {
		for i, a := range argv {
			printKeyValue(fmt.Sprintf("argv[%d]", i), a)
		}
		return nil
	}

	c.Logger.Info("launching", "exe", argv[0], "args", len(argv)-1)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// commandArgs returns the compiled argv: the executable followed by the
// tokens, exactly as compiled. Paths keep their backslashes and drive
// escapes.
func commandArgs(res *compile.Result) []string {
	argv := make([]string, 0, len(res.Tokens)+1)
	if res.Executable != "" {
		argv = append(argv, res.Executable)
	}
	for _, t := range res.Tokens {
		if t != "" {
			argv = append(argv, t)
		}
	}
	return argv
}

// splitCommand splits a stored buffer into argv. On Windows backslashes are
// path separators and "$" comes from drive escaping, so neither escapes nor
// variables are interpreted there.
func splitCommand(s string, windows bool) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = !windows
	if windows {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	argv, err := p.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse command")
	}
	if len(argv) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "command is empty")
	}
	return argv, nil
}
