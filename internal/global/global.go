// Package global implements the Global VM object of spec.md §3: a single
// typed cell plus a mutability flag, writable after init only if mutable.
package global

import (
	"errors"

	"github.com/wasmcore/runtime/api"
)

// ErrImmutable is returned by Set when the Global was declared immutable.
var ErrImmutable = errors.New("global: cannot write to an immutable global")

// Global is one mutable-or-constant typed cell. Values are stored as a
// 16-byte-wide bit pattern (lo/hi) so a v128 global fits without a second
// representation, matching the LocalGlobal layout of spec.md §6 ("one u64
// cell, or 16 bytes for v128").
type Global struct {
	Type    api.ValueType
	Mutable bool

	lo, hi uint64
}

// New returns a Global of the given type and mutability, initialized to
// init (lo, hi — hi is ignored for non-v128 types).
func New(t api.ValueType, mutable bool, lo, hi uint64) *Global {
	return &Global{Type: t, Mutable: mutable, lo: lo, hi: hi}
}

// Get returns the cell's current bit pattern.
func (g *Global) Get() (lo, hi uint64) { return g.lo, g.hi }

// Set overwrites the cell. Returns ErrImmutable if g is not mutable;
// spec.md §3: "Immutable globals may only be written at init."
func (g *Global) Set(lo, hi uint64) error {
	if !g.Mutable {
		return ErrImmutable
	}
	g.lo, g.hi = lo, hi
	return nil
}

// SetInit writes the cell unconditionally, bypassing the mutability check.
// Instantiation does not use it: it builds each global with New, passing the
// already-evaluated init value.
func (g *Global) SetInit(lo, hi uint64) {
	g.lo, g.hi = lo, hi
}
