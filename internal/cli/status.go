package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/errors"
)

// statusCommand creates the status command, which checks the chemistry
// service.
func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the chemistry service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chem := c.newChem(nil)

			printKeyValue("Service", StyleLink.Render(chem.BaseURL()))
			st, err := chem.Status(ctx)
			if err != nil {
				printError("%s", st.Detail)
				return errors.Wrap(errors.ErrCodeUpstream, err, "chemistry service unavailable")
			}
			printKeyValue("Status", StyleSuccess.Render(st.Status))

			keys := make([]string, 0, len(st.Fields))
			for k := range st.Fields {
				if k != "status" {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				printDetail("%s: %v", k, st.Fields[k])
			}
			return nil
		},
	}
}
