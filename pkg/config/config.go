// Package config loads synthroute settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. built-in defaults ([Default])
//  2. the TOML file ($XDG_CONFIG_HOME/synthroute/config.toml or --config)
//  3. a .env file in the working directory
//  4. environment variables (API_URL and SYNTHROUTE_*)
//  5. command line flags, applied by the CLI
//
// A config file looks like:
//
//	api_url = "http://localhost:5099"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[client]
//	rate_limit = 20
//	timeout = "30s"
//
//	[display]
//	show_reagents = true
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/synthroute/pkg/cache"
	"github.com/matzehuels/synthroute/pkg/enrich"
	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/integrations/chemistry"
	"github.com/matzehuels/synthroute/pkg/store"
	"github.com/matzehuels/synthroute/pkg/transform"
)

// Config holds all settings.
type Config struct {
	APIURL  string        `toml:"api_url"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Client  ClientConfig  `toml:"client"`
	Enrich  EnrichConfig  `toml:"enrich"`
	Display DisplayConfig `toml:"display"`
	Server  ServerConfig  `toml:"server"`
}

type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	Prefix    string `toml:"prefix"`
}

type StoreConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ClientConfig tunes the chemistry service client.
type ClientConfig struct {
	RateLimit float64  `toml:"rate_limit"`
	Burst     int      `toml:"burst"`
	Retries   int      `toml:"retries"`
	Timeout   Duration `toml:"timeout"`
}

type EnrichConfig struct {
	Concurrency     int  `toml:"concurrency"`
	ShowAtomIndices bool `toml:"show_atom_indices"`
	NormalizeRoles  bool `toml:"normalize_roles"`
	UsePrecomputed  bool `toml:"use_precomputed"`
	ShowStructures  bool `toml:"show_structures"`
}

// DisplayConfig holds the default display toggles.
type DisplayConfig struct {
	ShowReagents      bool   `toml:"show_reagents"`
	DuplicateReagents bool   `toml:"duplicate_reagents"`
	HighlightAtoms    bool   `toml:"highlight_atoms"`
	Layout            string `toml:"layout"`
	RankDir           string `toml:"rankdir"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL: chemistry.DefaultBaseURL,
		Cache:  CacheConfig{Backend: string(cache.BackendFile), RedisAddr: "localhost:6379"},
		Store:  StoreConfig{Backend: string(store.BackendFile)},
		Client: ClientConfig{
			Retries: 3,
			Timeout: Duration{30 * time.Second},
		},
		Enrich: EnrichConfig{Concurrency: enrich.DefaultConcurrency},
		Display: DisplayConfig{
			DuplicateReagents: true,
			HighlightAtoms:    true,
			Layout:            string(transform.LayoutHierarchical),
			RankDir:           "BT",
		},
		Server: ServerConfig{Addr: ":5099"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/synthroute/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "synthroute", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "synthroute", "config.toml")
}

// =============================================================================
// Loading
// =============================================================================

// Loader reads the file and environment layers.
type Loader struct {
	// Path is the config file. Empty means DefaultPath, which may be
	// missing; an explicit Path must exist.
	Path string
	// EnvFile is the dotenv file. Empty means ".env"; it may be missing.
	EnvFile string
	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load applies defaults, the config file, .env and the environment.
func Load(path string) (*Config, error) {
	return Loader{Path: path}.Load()
}

// Load runs the loader.
func (l Loader) Load() (*Config, error) {
	cfg := Default()

	path, explicit := l.Path, l.Path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
			default:
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		}
	}

	env, err := l.environment()
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// environment merges the dotenv file with the process environment, the
// latter winning.
func (l Loader) environment() (func(string) (string, bool), error) {
	envFile := l.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", envFile)
		}
		dotenv = map[string]string{}
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// applyEnv overrides settings from environment variables. API_URL is the
// service's own variable; SYNTHROUTE_API_URL takes precedence over it.
func (c *Config) applyEnv(env func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := env(k); ok && v != "" {
				*dst = v
			}
		}
	}
	str(&c.APIURL, "API_URL", "SYNTHROUTE_API_URL")
	str(&c.Cache.Backend, "SYNTHROUTE_CACHE_BACKEND")
	str(&c.Cache.Dir, "SYNTHROUTE_CACHE_DIR")
	str(&c.Cache.RedisAddr, "SYNTHROUTE_REDIS_ADDR")
	str(&c.Store.Backend, "SYNTHROUTE_STORE_BACKEND")
	str(&c.Store.Dir, "SYNTHROUTE_STORE_DIR")
	str(&c.Store.MongoURI, "SYNTHROUTE_MONGO_URI")
	str(&c.Display.Layout, "SYNTHROUTE_LAYOUT")
	str(&c.Server.Addr, "SYNTHROUTE_LISTEN")

	if v, ok := env("SYNTHROUTE_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SYNTHROUTE_RATE_LIMIT=%q", v)
		}
		c.Client.RateLimit = f
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"SYNTHROUTE_RETRIES", &c.Client.Retries},
		{"SYNTHROUTE_CONCURRENCY", &c.Enrich.Concurrency},
	}
	for _, it := range ints {
		if v, ok := env(it.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s=%q", it.key, v)
			}
			*it.dst = n
		}
	}
	if v, ok := env("SYNTHROUTE_TIMEOUT"); ok && v != "" {
		if err := c.Client.Timeout.UnmarshalText([]byte(v)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SYNTHROUTE_TIMEOUT=%q", v)
		}
	}
	return nil
}

// Validate checks the settings and normalizes the service URL.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if err := errors.ValidateURL(c.APIURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "api_url")
	}
	switch cache.Backend(c.Cache.Backend) {
	case "", cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	switch store.Backend(c.Store.Backend) {
	case "", store.BackendFile, store.BackendMongo, store.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (must be file, mongo or none)", c.Store.Backend)
	}
	if _, err := transform.ParseLayout(c.Display.Layout); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "display.layout")
	}
	if c.Client.Retries < 0 || c.Enrich.Concurrency < 0 || c.Client.RateLimit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retries, concurrency and rate_limit must not be negative")
	}
	return nil
}

// =============================================================================
// Component settings
// =============================================================================

// ChemistryConfig returns the chemistry client settings.
func (c *Config) ChemistryConfig() chemistry.Config {
	return chemistry.Config{
		BaseURL:   c.APIURL,
		RateLimit: c.Client.RateLimit,
		Burst:     c.Client.Burst,
		Retries:   c.Client.Retries,
		Timeout:   c.Client.Timeout.Duration,
	}
}

// CacheConfig returns the cache backend settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend: cache.Backend(c.Cache.Backend),
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:   c.Cache.RedisAddr,
			DB:     c.Cache.RedisDB,
			Prefix: c.Cache.Prefix,
		},
	}
}

// StoreConfig returns the room store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend: store.Backend(c.Store.Backend),
		Dir:     c.Store.Dir,
		Mongo:   store.MongoConfig{URI: c.Store.MongoURI, Database: c.Store.Database},
	}
}

// EnrichOptions returns the enrichment defaults.
func (c *Config) EnrichOptions() enrich.Options {
	return enrich.Options{
		HighlightAtoms:  c.Display.HighlightAtoms,
		ShowAtomIndices: c.Enrich.ShowAtomIndices,
		NormalizeRoles:  c.Enrich.NormalizeRoles,
		UsePrecomputed:  c.Enrich.UsePrecomputed,
		ShowStructures:  c.Enrich.ShowStructures,
		Concurrency:     c.Enrich.Concurrency,
	}
}

// TransformOptions returns the transform defaults. Validate must have
// accepted the layout.
func (c *Config) TransformOptions() transform.Options {
	layout, _ := transform.ParseLayout(c.Display.Layout)
	return transform.Options{
		ShowReagents:               c.Display.ShowReagents,
		DuplicateStartingMaterials: c.Display.DuplicateReagents,
		Layout:                     layout,
	}
}

// String renders the effective settings as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
