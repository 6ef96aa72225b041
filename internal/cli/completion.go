package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a completion script for the requested shell.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script covering hscompose's commands and flags
(compile, run, buffer, remote, watch, serve and the rest). The script goes
to stdout; load it into the current shell or save it where your shell looks
for completions.

Current shell only:
  bash        source <(hscompose completion bash)
  zsh         source <(hscompose completion zsh)
  fish        hscompose completion fish | source
  powershell  hscompose completion powershell | Out-String | Invoke-Expression

Every new shell:
  bash        hscompose completion bash > ~/.local/share/bash-completion/completions/hscompose
  zsh         hscompose completion zsh > "${fpath[1]}/_hscompose"   (needs compinit)
  fish        hscompose completion fish > ~/.config/fish/completions/hscompose.fish
  powershell  add the "current shell" line to $PROFILE

On a cluster login node without root, the per-user bash path above works
without touching /etc.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}
