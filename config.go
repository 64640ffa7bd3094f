// Package wasmcore is the embedder-facing facade over the runtime's
// internal packages, grounded on wazero's root package shape: a
// RuntimeConfig builder, a Runtime that compiles and instantiates modules,
// and a Cache an embedder can share across Runtimes.
package wasmcore

import (
	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/engine"
	"github.com/wasmcore/runtime/internal/tunables"
)

// RuntimeConfig configures a Runtime, built by chaining With* calls the
// same way engine.Config is — each returns a new value rather than
// mutating the receiver, so a shared base config is safe to specialize
// for several Runtimes.
type RuntimeConfig struct {
	decoder   engine.Decoder
	tunables  tunables.Tunables
	features  api.CoreFeatures
	target    string
	cacheSize int
}

// NewRuntimeConfig returns the default RuntimeConfig: wasmcore's one
// compiler back-end target, Core 2.0 features, and a 128-entry artifact
// cache. Equivalent to wazero's NewRuntimeConfigInterpreter, since
// wasmcore ships no ahead-of-time codegen back-end to choose between.
func NewRuntimeConfig() RuntimeConfig {
	cfg := engine.NewConfig()
	return RuntimeConfig{
		tunables:  cfg.Tunables(),
		features:  cfg.Features(),
		target:    cfg.Target(),
		cacheSize: cfg.CacheSize(),
	}
}

// WithDecoder supplies the Wasm-bytes-to-Module decoder CompileModule
// needs. wasmcore carries no binary decoder of its own (see
// internal/engine's package doc); without one, CompileModule fails with
// engine.ErrHeadless and only DeserializeModule is available.
func (c RuntimeConfig) WithDecoder(d engine.Decoder) RuntimeConfig {
	c.decoder = d
	return c
}

// WithTunables overrides the Tunables policy locally-defined memories and
// tables are created with.
func (c RuntimeConfig) WithTunables(t tunables.Tunables) RuntimeConfig {
	c.tunables = t
	return c
}

// WithCoreFeatures overrides which optional core Wasm features are enabled.
func (c RuntimeConfig) WithCoreFeatures(f api.CoreFeatures) RuntimeConfig {
	c.features = f
	return c
}

// WithCompilationCacheSize bounds how many compiled Artifacts the
// Runtime's Engine retains. Zero disables caching.
func (c RuntimeConfig) WithCompilationCacheSize(n int) RuntimeConfig {
	c.cacheSize = n
	return c
}

func (c RuntimeConfig) toEngineConfig() engine.Config {
	ec := engine.NewConfig().
		WithDecoder(c.decoder).
		WithTunables(c.tunables).
		WithFeatures(c.features).
		WithCacheSize(c.cacheSize)
	if c.target != "" {
		ec = ec.WithTarget(c.target)
	}
	return ec
}
