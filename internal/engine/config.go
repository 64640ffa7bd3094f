// Package engine implements the Engine facade of spec.md §4.10: the
// top-level object holding an optional compiler back-end, Tunables,
// enabled Features, a Target description, a shared Signature Registry, and
// the growing list of Code Memories every successful compile or
// deserialize adds to.
//
// Grounded on wazero's RuntimeConfig (config.go): an immutable, clone-on-
// With* builder rather than functional options, so a chain of With* calls
// never mutates a config another Engine already captured.
package engine

import (
	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/tunables"
)

// Decoder turns raw Wasm bytes into a parsed artifact.Module. wasmcore does
// not implement a Wasm binary decoder itself (spec.md §6 places that
// boundary outside the core); an embedder supplies one to unlock
// Engine.Validate and Engine.Compile. Without one, an Engine can still
// Deserialize previously-compiled artifacts.
type Decoder interface {
	Decode(wasmBytes []byte) (*artifact.Module, error)
}

// Config is an immutable Engine configuration, built by chaining With*
// calls, each of which returns a new Config rather than mutating the
// receiver.
type Config struct {
	decoder      Decoder
	tunables     tunables.Tunables
	features     api.CoreFeatures
	target       string
	cacheSize    int
}

// defaultConfig is the Config NewConfig starts from.
var defaultConfig = Config{
	tunables:  tunables.NewDefault(),
	features:  api.CoreFeaturesV2,
	target:    "interpreter/generic",
	cacheSize: 128,
}

// NewConfig returns the default Config: the reference Tunables, Core 2.0
// features enabled, wasmcore's interpreter target, a 128-entry artifact
// cache, and no Decoder (so Validate/Compile fail until WithDecoder is
// called).
func NewConfig() Config { return defaultConfig }

func (c Config) WithDecoder(d Decoder) Config {
	c.decoder = d
	return c
}

func (c Config) WithTunables(t tunables.Tunables) Config {
	c.tunables = t
	return c
}

func (c Config) WithFeatures(f api.CoreFeatures) Config {
	c.features = f
	return c
}

func (c Config) WithTarget(target string) Config {
	c.target = target
	return c
}

// WithCacheSize bounds the number of compiled Artifacts the Engine's LRU
// cache retains. Zero disables caching entirely.
func (c Config) WithCacheSize(n int) Config {
	c.cacheSize = n
	return c
}

func (c Config) Decoder() Decoder                 { return c.decoder }
func (c Config) Tunables() tunables.Tunables      { return c.tunables }
func (c Config) Features() api.CoreFeatures       { return c.features }
func (c Config) Target() string                   { return c.target }
func (c Config) CacheSize() int                   { return c.cacheSize }

// HeadlessConfig returns a Config with no Decoder, matching spec.md
// §4.10's "headless engine (no compiler)": Validate and Compile both fail
// with ErrHeadless, but Deserialize still works.
func HeadlessConfig() Config {
	return defaultConfig.WithDecoder(nil)
}
