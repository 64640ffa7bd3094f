// Package wasmlog centralizes the runtime's structured logging. wasmcore is
// a library first, so every logger defaults to zap's no-op implementation:
// embedding the runtime never writes to stderr unless a host explicitly
// opts in via Set.
package wasmlog

import "go.uber.org/zap"

var global = zap.NewNop()

// Set installs l as the package-wide logger. Passing nil restores the no-op
// logger. Neither Engine construction nor cmd/wasmcoretool calls it; a host
// calls it once, early. It is not safe to call concurrently with logging calls.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global = l
}

// Get returns the current package-wide logger.
func Get() *zap.Logger {
	return global
}

// Named returns a child logger scoped to component, e.g. "codemem", "trap".
func Named(component string) *zap.Logger {
	return global.Named(component)
}
