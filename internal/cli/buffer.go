package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/errors"
)

// bufferCommand creates the buffer management command.
func (c *CLI) bufferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buffer",
		Short: "Inspect compiled command buffers",
	}

	cmd.AddCommand(c.bufferListCommand())
	cmd.AddCommand(c.bufferShowCommand())
	cmd.AddCommand(c.bufferClearCommand())
	cmd.AddCommand(c.bufferPathCommand())

	return cmd
}

// withStore runs fn against the configured buffer store.
func (c *CLI) withStore(ctx context.Context, fn func(buffer.Store) error) error {
	st, err := c.loadSettings()
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx, st)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) bufferListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List buffers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s buffer.Store) error {
				names, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo("No buffers")
					return nil
				}
				for _, n := range names {
					fmt.Fprintln(stdout, n)
				}
				return nil
			})
		},
	}
}

func (c *CLI) bufferShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a buffer",
		Long: `Print a buffer. The name is either a full buffer name
(scene_command_tree.cmd) or a graph name, which shows its tree buffer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s buffer.Store) error {
				data, err := readBuffer(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, string(data))
				return nil
			})
		},
	}
}

// bufferName maps a graph name to its tree buffer and leaves full buffer
// names alone.
func bufferName(name string) string {
	if strings.HasSuffix(name, ".cmd") {
		return name
	}
	return buffer.TreeName(name)
}

// readBuffer reads a buffer by full or graph name.
func readBuffer(ctx context.Context, s buffer.Store, name string) ([]byte, error) {
	full := bufferName(name)
	data, err := s.Read(ctx, full)
	if stderrors.Is(err, buffer.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeNotFound, "buffer %q not found", full)
	}
	return data, err
}

func (c *CLI) bufferClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [name...]",
		Short: "Delete buffers (all when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s buffer.Store) error {
				names := args
				if len(names) == 0 {
					var err error
					if names, err = s.List(cmd.Context()); err != nil {
						return err
					}
				}
				for _, n := range names {
					if err := s.Delete(cmd.Context(), n); err != nil {
						return fmt.Errorf("delete %s: %w", n, err)
					}
				}
				printSuccess("Cleared %d buffers", len(names))
				return nil
			})
		},
	}
}

func (c *CLI) bufferPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where buffers are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s buffer.Store) error {
				fmt.Fprintln(stdout, buffer.Describe(s))
				return nil
			})
		},
	}
}
