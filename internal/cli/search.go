package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/integrations/chemistry"
	sio "github.com/matzehuels/synthroute/pkg/io"
)

// searchCommand creates the search command, which queries the chemistry
// service for routes to a target molecule.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		steps    int
		graph    bool
		allPaths bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "search [inchikey|smiles]",
		Short: "Search routes to a target molecule",
		Long: `Search routes to a target molecule.

The target is an InChIKey or a SMILES string. By default each candidate
route is written as its own document. With --graph the full synthesis graph
around the target is fetched instead.`,
		Example: `  synthroute search XLYOFNOQVPJJNP-UHFFFAOYSA-N --steps 3
  synthroute search "CC(=O)Oc1ccccc1C(=O)O" --graph -o aspirin.document.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, err := chemistry.NewRouteQuery(args[0], steps)
			if err != nil {
				return err
			}
			if allPaths {
				q.QueryType = chemistry.QueryAllPaths
			}

			cc, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()
			chem := c.newChem(cc)

			spinner := newSpinnerWithContext(ctx, "Searching routes...")
			spinner.Start()
			prog := newProgress(c.Logger)

			if graph {
				doc, rep, err := chem.FetchSynthesisGraph(ctx, q)
				if err != nil {
					spinner.StopWithError("Search failed")
					return err
				}
				spinner.Stop()
				prog.done("Fetched synthesis graph")
				if rep != nil && rep.Skipped() > 0 {
					c.Logger.Warn("skipped malformed items", "count", rep.Skipped())
				}
				path := searchOutput(output, args[0], -1)
				if err := sio.ExportDocument(path, doc); err != nil {
					return err
				}
				printSuccess("Synthesis graph")
				printStats(docStats(doc))
				printFile(path)
				return nil
			}

			candidates, skipped, err := chem.SearchRoutes(ctx, q)
			if err != nil {
				spinner.StopWithError("Search failed")
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Found %d routes", len(candidates)))
			if skipped > 0 {
				printWarning("%d routes could not be read", skipped)
			}
			if len(candidates) == 0 {
				printInfo("No routes found")
				return nil
			}

			printSuccess("%d routes", len(candidates))
			for i, cand := range candidates {
				path := searchOutput(output, args[0], i)
				if err := sio.ExportDocument(path, cand.Document); err != nil {
					return err
				}
				printFile(path)
			}
			printNewline()
			printNextStep("Render a route", appName+" render "+searchOutput(output, args[0], 0))
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 3, "maximum number of reaction steps")
	cmd.Flags().BoolVar(&graph, "graph", false, "fetch the full synthesis graph instead of candidate routes")
	cmd.Flags().BoolVar(&allPaths, "all-paths", false, "return all paths instead of the shortest")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (--graph) or base path for route documents")
	return cmd
}

// searchOutput returns the document path for candidate i, or for the whole
// graph when i is negative.
func searchOutput(output, target string, i int) string {
	base := output
	if base == "" {
		base = safeName(target)
	}
	base = strings.TrimSuffix(base, ".json")
	base = strings.TrimSuffix(base, ".document")
	if i < 0 {
		return base + ".document.json"
	}
	return base + "-" + strconv.Itoa(i) + ".document.json"
}

// safeName turns a target into a file name.
func safeName(target string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(target))
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" {
		name = "target"
	}
	return filepath.Clean(name)
}
