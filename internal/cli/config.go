package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration.

Settings are layered: built-in defaults, the config file, a .env file in
the working directory, the environment and finally command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(c.out(), c.Config.String())
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			_, err := fmt.Fprintln(c.out(), path)
			return err
		},
	})
	return cmd
}
