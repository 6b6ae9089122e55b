package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	sio "github.com/matzehuels/synthroute/pkg/io"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
)

// routesCommand creates the routes command, which lists the routes of a
// document.
func (c *CLI) routesCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "routes [document.json]",
		Short: "List the routes of a synthesis graph",
		Long: `List the routes of a synthesis graph.

Each route is shown with its index (the value for --subgraph), its size,
the method and status recorded in the document and its aggregated yield.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoutes(cmd.Context(), args[0], from)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source format: auto (default), canonical, cytoscape, predicted")
	return cmd
}

func (c *CLI) runRoutes(_ context.Context, input, from string) error {
	doc, err := readDocument(input, from)
	if err != nil {
		return err
	}

	printInfo("%s", input)
	printStats(docStats(doc))
	if len(doc.Routes) == 0 {
		printWarning("No routes in document; use the whole graph")
		return nil
	}
	fmt.Fprintln(c.out(), routeTable(doc, 0, len(doc.Routes), -1))
	printNextStep("Render a route", appName+" render "+input+" --subgraph 0")
	return nil
}

// readDocument reads and normalizes a document file.
func readDocument(path, from string) (*route.Document, error) {
	format, err := normalize.ParseFormat(from)
	if err != nil {
		return nil, err
	}
	doc, _, err := sio.ReadDocument(path, format)
	return doc, err
}

// routeRow returns the table cells of one route.
func routeRow(doc *route.Document, i int) []string {
	sel := doc.Routes[i]
	yield := "—"
	if sel.AggregatedYield != nil {
		yield = strconv.FormatFloat(*sel.AggregatedYield, 'f', 1, 64) + "%"
	}
	kind := "evidence"
	if sel.Predicted {
		kind = "predicted"
	}
	reactions := 0
	for _, label := range sel.NodeLabels {
		if n, ok := doc.Node(label); ok && n.IsReaction() {
			reactions++
		}
	}
	return []string{
		strconv.Itoa(i),
		strconv.Itoa(len(sel.NodeLabels)),
		strconv.Itoa(reactions),
		orDash(sel.Method),
		orDash(sel.Status),
		yield,
		kind,
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// routeTable renders routes [from, to) of doc. The route at cursor is
// highlighted; pass -1 for none.
func routeTable(doc *route.Document, from, to, cursor int) string {
	rows := make([][]string, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, routeRow(doc, i))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Nodes", "Steps", "Method", "Status", "Yield", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := from + row
			if idx == cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if idx < to && doc.Routes[idx].Predicted {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
