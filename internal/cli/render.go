package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/pipeline"
	"github.com/matzehuels/synthroute/pkg/transform"
)

// =============================================================================
// Display flags
// =============================================================================

// displayFlags are the route display toggles shared by the commands that
// build elements. Unset flags keep the configured defaults.
type displayFlags struct {
	from         string
	subgraph     string
	layout       string
	skipEnrich   bool
	refresh      bool
	showReagents bool
	duplicate    bool
	highlight    bool
	indices      bool
	normRoles    bool
	precomputed  bool
	structures   bool
}

func (f *displayFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.from, "from", "", "source format: auto (default), canonical, cytoscape, predicted (alias askcos)")
	fs.StringVarP(&f.subgraph, "subgraph", "s", "", "route index to show (default: whole graph)")
	fs.StringVar(&f.layout, "layout", "", "layout family: hierarchical, force")
	fs.BoolVar(&f.skipEnrich, "skip-enrich", false, "do not contact the chemistry service")
	fs.BoolVar(&f.refresh, "refresh", false, "bypass cached results")
	fs.BoolVar(&f.showReagents, "show-reagents", false, "keep reagent nodes")
	fs.BoolVar(&f.duplicate, "duplicate", true, "duplicate starting materials shared by several reactions")
	fs.BoolVar(&f.highlight, "highlight-atoms", true, "highlight mapped atoms in reaction depictions")
	fs.BoolVar(&f.indices, "atom-indices", false, "show atom indices in reaction depictions")
	fs.BoolVar(&f.normRoles, "normalize-roles", false, "let the service reassign reactant and reagent roles")
	fs.BoolVar(&f.precomputed, "use-precomputed", false, "prefer depictions already present in the document")
	fs.BoolVar(&f.structures, "structures", false, "draw every substance as a structure, not only targets")
}

// apply copies the flags the user set onto opts.
func (f *displayFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	fs := cmd.Flags()
	opts.SourceFormat = f.from
	opts.Subgraph = f.subgraph
	opts.SkipEnrich = f.skipEnrich
	opts.Refresh = f.refresh
	if fs.Changed("layout") {
		layout, err := transform.ParseLayout(f.layout)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --layout")
		}
		opts.Transform.Layout = layout
	}
	bools := []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"show-reagents", f.showReagents, &opts.Transform.ShowReagents},
		{"duplicate", f.duplicate, &opts.Transform.DuplicateStartingMaterials},
		{"highlight-atoms", f.highlight, &opts.Enrich.HighlightAtoms},
		{"atom-indices", f.indices, &opts.Enrich.ShowAtomIndices},
		{"normalize-roles", f.normRoles, &opts.Enrich.NormalizeRoles},
		{"use-precomputed", f.precomputed, &opts.Enrich.UsePrecomputed},
		{"structures", f.structures, &opts.Enrich.ShowStructures},
	}
	for _, b := range bools {
		if fs.Changed(b.name) {
			*b.dst = b.src
		}
	}
	return nil
}

// =============================================================================
// render
// =============================================================================

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      displayFlags
		formatsStr string
		output     string
		rankdir    string
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "render [document.json]",
		Short: "Render a synthesis graph to SVG, PNG, PDF or DOT",
		Long: `Render a synthesis graph.

The document is normalized, the selected route is mapped to elements,
enriched with depictions from the chemistry service and transformed
(reagent removal, starting-material duplication) before it is drawn with
Graphviz.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if cmd.Flags().Changed("rankdir") {
				opts.RankDir = rankdir
			}
			opts.Detailed = detailed
			return c.runPipeline(cmd.Context(), args[0], opts, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json, document (comma-separated)")
	cmd.Flags().StringVar(&rankdir, "rankdir", "BT", "Graphviz rank direction: BT, TB, LR, RL")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with their attributes")

	return cmd
}

// elementsCommand creates the elements command, which writes renderer
// elements as JSON.
func (c *CLI) elementsCommand() *cobra.Command {
	var (
		flags  displayFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "elements [document.json]",
		Short: "Export renderer elements as cytoscape JSON",
		Long: `Export renderer elements as cytoscape JSON.

The output has the shape {"elements": {"nodes": [...], "edges": [...]}}
and is written to stdout unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			opts.Formats = []string{pipeline.FormatJSON}
			if output == "" {
				output = "-"
			}
			return c.runPipeline(cmd.Context(), args[0], opts, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// runPipeline reads input, runs the pipeline and writes the artifacts.
// An output of "-" writes a single artifact to stdout.
func (c *CLI) runPipeline(ctx context.Context, input string, opts pipeline.Options, output string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", input)
		}
		return err
	}
	opts.Input = raw

	runner, err := c.newRunner(ctx, opts.SkipEnrich)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	toStdout := output == "-"
	var spinner *Spinner
	if !toStdout {
		spinner = newSpinnerWithContext(ctx, "Building route view...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if !toStdout {
			printError("Pipeline failed")
		}
		return err
	}
	prog.done("Built route view")

	if toStdout {
		_, err := c.out().Write(result.Artifacts[opts.Formats[0]])
		reportResult(c, result)
		return err
	}

	err = writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		stats: graphStats{
			Nodes:    result.Stats.NodeCount,
			Edges:    result.Stats.EdgeCount,
			Failures: len(result.Failures),
			Cached:   result.CacheInfo.ElementsHit,
		},
	})
	reportResult(c, result)
	return err
}

// reportResult logs warnings and enrichment failures of a run.
func reportResult(c *CLI, result *pipeline.Result) {
	for _, w := range result.Warnings {
		c.Logger.Warn(w)
	}
	if len(result.Cycle) > 0 {
		c.Logger.Warn("cycle", "nodes", strings.Join(result.Cycle, " → "))
	}
	for _, f := range result.Failures {
		c.Logger.Warn("enrichment failed", "element", f.ID, "step", f.Step, "error", f.Err)
	}
	if result.Stats.Skipped > 0 {
		c.Logger.Warn("skipped malformed entries", "count", result.Stats.Skipped)
	}
}

// =============================================================================
// Output
// =============================================================================

// fileExt maps a format to its file extension.
func fileExt(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return "elements.json"
	case pipeline.FormatDocument:
		return "document.json"
	}
	return format
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	stats     graphStats
}

// writeArtifacts writes each artifact to its file. A single format with an
// explicit output path is written to exactly that path.
func writeArtifacts(p artifactWriteParams) error {
	var paths []string
	if len(p.formats) == 1 && p.output != "" {
		paths = []string{p.output}
	} else {
		base := basePath(p.output, p.input)
		for _, f := range p.formats {
			paths = append(paths, base+"."+fileExt(f))
		}
	}

	for i, f := range p.formats {
		if err := writeFile(paths[i], p.artifacts[f]); err != nil {
			return err
		}
	}

	printSuccess("Render complete")
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.stats)
	return nil
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty or "-", it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
