package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for synthroute.

To load completions:

Bash:
  $ source <(synthroute completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ synthroute completion bash > /etc/bash_completion.d/synthroute
  # macOS:
  $ synthroute completion bash > $(brew --prefix)/etc/bash_completion.d/synthroute

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ synthroute completion zsh > "${fpath[1]}/_synthroute"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ synthroute completion fish | source

  # To load completions for each session, execute once:
  $ synthroute completion fish > ~/.config/fish/completions/synthroute.fish

PowerShell:
  PS> synthroute completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> synthroute completion powershell > synthroute.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.out()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
