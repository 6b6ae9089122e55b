// Package cli implements the synthroute command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/synthroute/pkg/buildinfo"
	"github.com/matzehuels/synthroute/pkg/cache"
	"github.com/matzehuels/synthroute/pkg/config"
	"github.com/matzehuels/synthroute/pkg/integrations/chemistry"
	"github.com/matzehuels/synthroute/pkg/observability"
	"github.com/matzehuels/synthroute/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "synthroute"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	// Out receives command output. Nil means os.Stdout.
	Out io.Writer

	configPath string
	apiURL     string
	noCache    bool
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The configuration is reloaded before each command runs.
func New(w io.Writer, level log.Level) *CLI {
	cfg := config.Default()
	return &CLI{
		Logger: newLogger(w, level),
		Config: &cfg,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Synthroute turns chemical synthesis graphs into renderer-ready route views",
		Long: `Synthroute normalizes chemical synthesis-route documents, selects routes,
enriches them with molecule and reaction depictions from the chemistry
service, and exports renderer elements, DOT, SVG, PNG or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/synthroute/config.toml)")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "chemistry service URL (overrides API_URL)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.elementsCommand())
	root.AddCommand(c.routesCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration layers and applies the global flags
// on top.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = c.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.Config = cfg
	if c.Logger.GetLevel() <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
	c.Logger.Debug("configuration loaded", "api_url", cfg.APIURL, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured cache backend, or a NullCache with
// --no-cache.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := cache.Open(ctx, c.Config.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cc, nil
}

// newChem creates a chemistry client sharing backend as its response cache.
func (c *CLI) newChem(backend cache.Cache) *chemistry.Client {
	return chemistry.NewClient(backend, c.Config.ChemistryConfig())
}

// newRunner creates a pipeline runner with the configured cache and
// chemistry client. skipEnrich leaves the runner without a client.
func (c *CLI) newRunner(ctx context.Context, skipEnrich bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var chem *chemistry.Client
	if !skipEnrich {
		chem = c.newChem(cc)
	}
	if chem == nil {
		return pipeline.NewRunner(cc, nil, nil, c.Logger), nil
	}
	return pipeline.NewRunner(cc, nil, chem, c.Logger), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions returns pipeline defaults taken from the configuration.
func (c *CLI) pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Enrich = c.Config.EnrichOptions()
	opts.Transform = c.Config.TransformOptions()
	opts.RankDir = c.Config.Display.RankDir
	opts.Logger = c.Logger
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, def string) []string {
	if s == "" {
		return []string{def}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
