package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/elements"
	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
	"github.com/matzehuels/synthroute/pkg/session"
)

// =============================================================================
// EntityListModel - Interactive entity selection
// =============================================================================

// EntityListModel lists the nodes of a session view. The entity under the
// cursor is the session preview; enter makes it the session selection.
type EntityListModel struct {
	Sess   *session.Session
	Nodes  []elements.Element
	Cursor int
	Height int
	Offset int
	Chosen bool
}

// NewEntityListModel creates an entity list over the current view of sess.
func NewEntityListModel(sess *session.Session) EntityListModel {
	var nodes []elements.Element
	for _, el := range sess.Elements().Elements {
		if el.IsNode() {
			nodes = append(nodes, el)
		}
	}
	m := EntityListModel{Sess: sess, Nodes: nodes, Height: 15}
	m.preview()
	return m
}

func (m EntityListModel) preview() {
	if m.Cursor < len(m.Nodes) {
		m.Sess.SetPreview(m.Nodes[m.Cursor].ID())
	}
}

func (m EntityListModel) Init() tea.Cmd {
	return nil
}

func (m EntityListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Sess.SetPreview("")
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.Offset = min(m.Offset, m.Cursor)
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Nodes) == 0 {
				return m, nil
			}
			m.Sess.SetSelection(m.Nodes[m.Cursor].ID())
			m.Chosen = true
			return m, tea.Quit
		}
		m.preview()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m EntityListModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Entity"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Nodes))
	for i := m.Offset; i < end; i++ {
		el := m.Nodes[i]
		line := fmt.Sprintf("%-10s %s", el.String(elements.KeyNodeType), el.ID())
		if i == m.Cursor {
			b.WriteString(StyleHighlight.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.Sess.Preview() != "" && m.Cursor < len(m.Nodes) {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  " + entitySummary(m.Nodes[m.Cursor])))
	}
	return b.String()
}

// entitySummary is the one-line preview of a node element.
func entitySummary(el elements.Element) string {
	parts := []string{el.ID()}
	if role := el.String(route.KeySRole); role != "" {
		parts = append(parts, "role "+role)
	}
	if smiles := el.String(route.KeyRxSmiles); smiles != "" {
		parts = append(parts, smiles)
	} else if smiles := el.String(route.KeyCanonicalSmiles); smiles != "" {
		parts = append(parts, smiles)
	}
	return strings.Join(parts, " · ")
}

// =============================================================================
// inspect
// =============================================================================

// inspectCommand creates the inspect command, which prints the information
// of one entity of a route view.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		from         string
		subgraph     string
		showReagents bool
		offline      bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [document.json] [node]",
		Short: "Show the information of one entity in a route view",
		Long: `Show the information of one entity in a route view.

Without a node label an interactive list of the view's nodes is shown.
Reactions with a knowledge-base id are resolved against the chemistry
service unless --offline is set.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0], from)
			if err != nil {
				return err
			}
			index, err := route.ParseSelectKey(subgraph)
			if err != nil {
				return err
			}

			sess := session.New(nil, c.Logger)
			if err := sess.Load(doc); err != nil {
				return err
			}
			if err := sess.Select(index); err != nil {
				return err
			}
			opts := c.pipelineOptions().Transform
			opts.ShowReagents = opts.ShowReagents || showReagents
			sess.SetTransform(opts)

			if len(args) == 2 {
				sess.SetSelection(args[1])
			} else {
				final, err := tea.NewProgram(NewEntityListModel(sess)).Run()
				if err != nil {
					return fmt.Errorf("entity picker: %w", err)
				}
				if !final.(EntityListModel).Chosen {
					printInfo("No entity selected")
					return nil
				}
			}

			var lookup session.ReactionLookup
			if !offline {
				cc, err := c.newCache(cmd.Context())
				if err != nil {
					return err
				}
				defer cc.Close()
				lookup = c.newChem(cc)
			}
			return inspectSelection(cmd.Context(), c.out(), sess, lookup)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source format: auto (default), canonical, cytoscape, predicted (alias askcos)")
	cmd.Flags().StringVarP(&subgraph, "subgraph", "s", "", "route index to show (default: whole graph)")
	cmd.Flags().BoolVar(&showReagents, "show-reagents", false, "keep reagent nodes")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not resolve reactions against the knowledge base")
	return cmd
}

// inspectSelection writes the attributes and connections of the selected
// entity. A nil lookup skips the knowledge-base record.
func inspectSelection(ctx context.Context, w io.Writer, sess *session.Session, lookup session.ReactionLookup) error {
	id := sess.Selection()
	elems := sess.Elements().Elements

	var entity *elements.Element
	for i := range elems {
		if elems[i].IsNode() && elems[i].ID() == id {
			entity = &elems[i]
			break
		}
	}
	if entity == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no node %q in this view", id)
	}

	fmt.Fprintln(w, StyleTitle.Render(id))
	for _, k := range slices.Sorted(maps.Keys(entity.Data)) {
		if k == elements.KeyID || k == elements.KeySVG {
			continue
		}
		if v := entity.String(k); v != "" {
			fmt.Fprintf(w, "  %-22s %s\n", k, v)
		}
	}

	var in, out []string
	for _, el := range elems {
		if !el.IsEdge() {
			continue
		}
		typ := el.String(route.KeyEdgeType)
		switch id {
		case el.Target():
			in = append(in, fmt.Sprintf("%s (%s)", el.Source(), typ))
		case el.Source():
			out = append(out, fmt.Sprintf("%s (%s)", el.Target(), typ))
		}
	}
	if len(in) > 0 {
		fmt.Fprintf(w, "  %-22s %s\n", "from", strings.Join(in, ", "))
	}
	if len(out) > 0 {
		fmt.Fprintf(w, "  %-22s %s\n", "to", strings.Join(out, ", "))
	}

	rxid := entity.String("rxid")
	if lookup == nil || rxid == "" || entity.String(elements.KeyNodeType) != "reaction" {
		return nil
	}
	rec, err := sess.ReactionSource(ctx, rxid, lookup)
	if err != nil {
		return err
	}
	writeReactionSource(w, rec)
	return nil
}

func writeReactionSource(w io.Writer, rec *normalize.ReactionRecord) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Knowledge base "+rec.RxID))
	fmt.Fprintf(w, "  %-22s %s\n", "rxsmiles", orDash(rec.RxSmiles))
	fmt.Fprintf(w, "  %-22s %d reactants · %d reagents · %d products\n", "components",
		len(rec.Reactants), len(rec.Reagents), len(rec.Products))
	flat := elements.Flatten(rec.Attrs)
	for _, k := range slices.Sorted(maps.Keys(flat)) {
		if v, _ := flat[k].(string); v != "" {
			fmt.Fprintf(w, "  %-22s %s\n", k, v)
		}
	}
}
