package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/pipeline"
	"github.com/matzehuels/synthroute/pkg/route"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// RouteListModel - Interactive route selection
// =============================================================================

// RouteListModel is the bubbletea model for interactive route selection.
// Selected is the chosen route index, or nil when the user quit.
type RouteListModel struct {
	Doc      *route.Document
	Cursor   int
	Selected *int
	Height   int
	Offset   int
}

// NewRouteListModel creates a new route list model.
func NewRouteListModel(doc *route.Document) RouteListModel {
	return RouteListModel{Doc: doc, Height: 15}
}

func (m RouteListModel) Init() tea.Cmd {
	return nil
}

func (m RouteListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Doc.Routes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Doc.Routes)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		case "enter":
			if len(m.Doc.Routes) == 0 {
				return m, nil
			}
			idx := m.Cursor
			m.Selected = &idx
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m RouteListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Route"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ render  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Doc.Routes))
	b.WriteString(routeTable(m.Doc, m.Offset, end, m.Cursor))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Doc.Routes))))

	return b.String()
}

// =============================================================================
// pick
// =============================================================================

// pickCommand creates the interactive route picker.
func (c *CLI) pickCommand() *cobra.Command {
	var (
		flags      displayFlags
		formatsStr string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "pick [document.json]",
		Short: "Choose a route interactively and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0], flags.from)
			if err != nil {
				return err
			}
			if len(doc.Routes) == 0 {
				printWarning("No routes in document")
				return nil
			}

			final, err := tea.NewProgram(NewRouteListModel(doc)).Run()
			if err != nil {
				return fmt.Errorf("route picker: %w", err)
			}
			m := final.(RouteListModel)
			if m.Selected == nil {
				printInfo("No route selected")
				return nil
			}

			opts := c.pipelineOptions()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			opts.Subgraph = strconv.Itoa(*m.Selected)
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			printInfo("Route %d", *m.Selected)
			return c.runPipeline(cmd.Context(), args[0], opts, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	return cmd
}
