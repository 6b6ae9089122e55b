package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	sio "github.com/matzehuels/synthroute/pkg/io"
	"github.com/matzehuels/synthroute/pkg/normalize"
)

// lookupCommand creates the lookup command with reaction and substance
// subcommands.
func (c *CLI) lookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up reactions and substances in the knowledge base",
	}
	cmd.AddCommand(c.lookupReactionCommand())
	cmd.AddCommand(c.lookupSubstanceCommand())
	return cmd
}

func (c *CLI) lookupReactionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reaction [rxid]",
		Short: "Fetch a reaction and write it as a one-step document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()

			rec, err := c.newChem(cc).Reaction(ctx, args[0])
			if err != nil {
				return err
			}
			doc, err := normalize.FromReactionRecord(rec)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return sio.WriteDocument(c.out(), doc)
			}
			if err := sio.ExportDocument(output, doc); err != nil {
				return err
			}
			printSuccess("Reaction %s", args[0])
			printStats(docStats(doc))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) lookupSubstanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "substance [inchikey]",
		Short: "Print the knowledge-base record of a substance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()

			rec, err := c.newChem(cc).Substance(ctx, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out(), string(data))
			return err
		},
	}
}
