package wasmcore

// Cache configures how many compiled Artifacts an Engine retains,
// grounded on wazero's Cache (cache.go) but scoped to wasmcore's one
// in-process LRU layer: wasmcore keeps no on-disk compilation cache, since
// it ships no ahead-of-time codegen back-end worth persisting across
// process restarts (only the reference interpreter, which recompiles in
// microseconds).
type Cache struct {
	size int
}

// NewCache returns a Cache retaining up to size compiled Artifacts.
func NewCache(size int) Cache { return Cache{size: size} }

// WithCache applies c to cfg, the in-process equivalent of wazero's
// RuntimeConfig.WithCache.
func (cfg RuntimeConfig) WithCache(c Cache) RuntimeConfig {
	return cfg.WithCompilationCacheSize(c.size)
}
