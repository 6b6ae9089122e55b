package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/synthroute/pkg/config"
	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/route"
)

const testDocument = `{
  "synth_graph": {
    "nodes": [
      {"node_label": "R1", "node_type": "reaction", "rxsmiles": "CO.O>>CCl"},
      {"node_label": "A", "node_type": "substance", "canonical_smiles": "CO", "srole": "sm"},
      {"node_label": "W", "node_type": "substance", "canonical_smiles": "O"},
      {"node_label": "B", "node_type": "substance", "canonical_smiles": "CCl", "srole": "tm"}
    ],
    "edges": [
      {"start_node": "A", "end_node": "R1", "edge_type": "reactant_of", "uuid": "e1"},
      {"start_node": "W", "end_node": "R1", "edge_type": "reagent_of", "uuid": "e2"},
      {"start_node": "R1", "end_node": "B", "edge_type": "product_of", "uuid": "e3"}
    ]
  },
  "routes": {"subgraphs": [
    {"route_index": 0, "route_node_labels": ["A", "R1", "B"], "method": "evidence", "aggregated_yield": 87.5},
    {"route_index": 1, "route_node_labels": ["A", "W", "R1", "B"], "predicted": true}
  ]}
}`

// newTestCLI returns a CLI isolated from the user's configuration and
// cache, with command output captured.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SYNTHROUTE_CACHE_BACKEND", "none")
	t.Setenv("SYNTHROUTE_STORE_BACKEND", "none")

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, LogInfo)
	c.Out = &out
	return c, &out
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route.document.json")
	if err := os.WriteFile(path, []byte(testDocument), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()

	want := []string{"render", "elements", "routes", "pick", "inspect", "search", "lookup", "status", "watch", "serve", "cache", "config", "completion"}
	have := map[string]bool{}
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"config", "api-url", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, dot,,json", []string{"svg", "dot", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in, "svg")
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "routes/aspirin.json", "routes/aspirin"},
		{"out.svg", "in.json", "out"},
		{"out.pdf", "in.json", "out"},
		{"out", "in.json", "out"},
		{"out.v2", "in.json", "out.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestFileExt(t *testing.T) {
	tests := map[string]string{
		"json":     "elements.json",
		"document": "document.json",
		"svg":      "svg",
	}
	for in, want := range tests {
		if got := fileExt(in); got != want {
			t.Errorf("fileExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearchOutput(t *testing.T) {
	tests := []struct {
		output, target string
		i              int
		want           string
	}{
		{"", "XLYOFNOQVPJJNP-UHFFFAOYSA-N", 0, "XLYOFNOQVPJJNP-UHFFFAOYSA-N-0.document.json"},
		{"", "C(=O)O", -1, "C__O_O.document.json"},
		{"aspirin.document.json", "x", 2, "aspirin-2.document.json"},
		{"graph.json", "x", -1, "graph.document.json"},
	}
	for _, tt := range tests {
		if got := searchOutput(tt.output, tt.target, tt.i); got != tt.want {
			t.Errorf("searchOutput(%q, %q, %d) = %q, want %q", tt.output, tt.target, tt.i, got, tt.want)
		}
	}
}

func TestElementsCommand(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeTestDocument(t)

	root := c.RootCommand()
	root.SetArgs([]string{"elements", input, "--skip-enrich", "--subgraph", "0"})
	if err := root.Execute(); err != nil {
		t.Fatalf("elements: %v", err)
	}

	var got struct {
		Elements struct {
			Nodes []struct {
				Data map[string]any `json:"data"`
			} `json:"nodes"`
			Edges []json.RawMessage `json:"edges"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got.Elements.Nodes) != 3 || len(got.Elements.Edges) != 2 {
		t.Errorf("got %d nodes, %d edges; want 3, 2", len(got.Elements.Nodes), len(got.Elements.Edges))
	}
}

func TestElementsCommandShowReagents(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeTestDocument(t)

	root := c.RootCommand()
	root.SetArgs([]string{"elements", input, "--skip-enrich", "--show-reagents"})
	if err := root.Execute(); err != nil {
		t.Fatalf("elements: %v", err)
	}
	if !strings.Contains(out.String(), `"W"`) {
		t.Error("reagent W missing with --show-reagents")
	}
}

func TestRenderCommandWritesFiles(t *testing.T) {
	c, _ := newTestCLI(t)
	input := writeTestDocument(t)
	base := filepath.Join(t.TempDir(), "view")

	root := c.RootCommand()
	root.SetArgs([]string{"render", input, "--skip-enrich", "-f", "dot,json", "-o", base})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, path := range []string{base + ".dot", base + ".elements.json"} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"render", "does-not-exist.json", "--skip-enrich"}},
		{"bad format", []string{"render", "IN", "--skip-enrich", "-f", "gif"}},
		{"bad layout", []string{"render", "IN", "--skip-enrich", "--layout", "circle"}},
		{"bad subgraph", []string{"render", "IN", "--skip-enrich", "--subgraph", "9", "-f", "dot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI(t)
			input := writeTestDocument(t)
			args := make([]string, len(tt.args))
			for i, a := range tt.args {
				if a == "IN" {
					a = input
				}
				args[i] = a
			}
			root := c.RootCommand()
			root.SetArgs(args)
			root.SetErr(&bytes.Buffer{})
			if err := root.Execute(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRoutesCommand(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeTestDocument(t)

	root := c.RootCommand()
	root.SetArgs([]string{"routes", input})
	if err := root.Execute(); err != nil {
		t.Fatalf("routes: %v", err)
	}
	for _, want := range []string{"evidence", "87.5%", "predicted"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("routes output lacks %q:\n%s", want, out.String())
		}
	}
}

func TestRouteRow(t *testing.T) {
	y := 42.0
	doc := &route.Document{
		Nodes: []route.Node{
			{Label: "R1", Type: route.NodeReaction},
			{Label: "A", Type: route.NodeSubstance},
		},
		Routes: []route.Selection{{NodeLabels: []string{"A", "R1"}, AggregatedYield: &y}},
	}
	got := routeRow(doc, 0)
	want := []string{"0", "2", "1", "—", "—", "42.0%", "evidence"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("routeRow() = %v, want %v", got, want)
	}
}

func TestConfigCommand(t *testing.T) {
	c, out := newTestCLI(t)
	t.Setenv("API_URL", "http://chem.test:5099/")

	root := c.RootCommand()
	root.SetArgs([]string{"config"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"http://chem.test:5099"`) {
		t.Errorf("config output lacks API URL:\n%s", out.String())
	}

}

func TestConfigPathCommand(t *testing.T) {
	c, out := newTestCLI(t)
	root := c.RootCommand()
	root.SetArgs([]string{"config", "path"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != config.DefaultPath() {
		t.Errorf("config path = %q, want %q", got, config.DefaultPath())
	}
}

func TestMissingConfigFile(t *testing.T) {
	c, _ := newTestCLI(t)
	root := c.RootCommand()
	root.SetArgs([]string{"config", "--config", filepath.Join(t.TempDir(), "absent.toml")})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestAPIURLFlagOverridesEnv(t *testing.T) {
	c, _ := newTestCLI(t)
	t.Setenv("API_URL", "http://from-env:1")

	root := c.RootCommand()
	root.SetArgs([]string{"config", "--api-url", "http://from-flag:2"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.Config.APIURL != "http://from-flag:2" {
		t.Errorf("APIURL = %q", c.Config.APIURL)
	}
}

func TestGraphStatsString(t *testing.T) {
	tests := []struct {
		s    graphStats
		want string
	}{
		{graphStats{Nodes: 3, Edges: 2}, "3 nodes · 2 edges · fresh"},
		{graphStats{Nodes: 1, Routes: 1, Cached: true}, "1 node · 1 route · cached"},
		{graphStats{Nodes: 4, Edges: 3, Failures: 2}, "4 nodes · 3 edges · 2 failed depictions · fresh"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
