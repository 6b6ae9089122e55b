// Package cache provides the byte-level cache shared by the chemistry client,
// the pipeline runner and the renderers.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: hash-sharded JSON files, the CLI default
//   - [RedisCache]: a Redis server, for the HTTP server and shared deployments
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that every layer derives the same key for
// the same inputs. [NewScopedKeyer] prefixes all keys of an inner keyer, which
// keeps per-room or per-tenant entries apart in a shared backend.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default time-to-live per entry kind.
const (
	TTLHTTP      = 24 * time.Hour
	TTLDepiction = 7 * 24 * time.Hour
	TTLElements  = 24 * time.Hour
	TTLRender    = 24 * time.Hour
)

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendNone  Backend = "none"
)

// Config selects and configures a backend for [Open].
type Config struct {
	Backend Backend
	Dir     string
	Redis   RedisConfig
}

// Open creates the cache described by cfg. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileCache(cfg.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, cfg.Redis)
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey keys a raw upstream response.
	HTTPKey(namespace, key string) string
	// DepictionKey keys one rendered depiction.
	DepictionKey(opts DepictionKeyOpts) string
	// ElementsKey keys the enriched, transformed elements of a document.
	ElementsKey(docHash string, opts ElementsKeyOpts) string
	// RenderKey keys an exported rendering of an element list.
	RenderKey(elementsHash string, opts RenderKeyOpts) string
}

// DepictionKeyOpts identifies a depiction request.
type DepictionKeyOpts struct {
	Kind        string `json:"kind"`
	Smiles      string `json:"smiles"`
	Width       int    `json:"w"`
	Height      int    `json:"h"`
	Highlight   bool   `json:"hl,omitempty"`
	ShowIndices bool   `json:"idx,omitempty"`
}

// ElementsKeyOpts holds the pipeline options that change the element output.
type ElementsKeyOpts struct {
	Route  int  `json:"route"`
	Enrich bool `json:"enrich"`
	// Service identifies the depiction service, usually its base URL.
	Service                    string `json:"svc,omitempty"`
	HighlightAtoms             bool   `json:"hl"`
	ShowAtomIndices            bool   `json:"idx"`
	NormalizeRoles             bool   `json:"norm"`
	UsePrecomputed             bool   `json:"pre"`
	ShowStructures             bool   `json:"structs"`
	TargetWidth                int    `json:"tw"`
	TargetHeight               int    `json:"th"`
	ShowReagents               bool   `json:"reagents"`
	DuplicateStartingMaterials bool   `json:"dup"`
	Layout                     string `json:"layout"`
}

// RenderKeyOpts holds the options of an export.
type RenderKeyOpts struct {
	Format  string `json:"format"`
	RankDir string `json:"rankdir"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) DepictionKey(opts DepictionKeyOpts) string {
	return hashKey("depiction", opts)
}

func (DefaultKeyer) ElementsKey(docHash string, opts ElementsKeyOpts) string {
	return hashKey("elements", docHash, opts)
}

func (DefaultKeyer) RenderKey(elementsHash string, opts RenderKeyOpts) string {
	return hashKey("render", elementsHash, opts)
}
