// Package tunables implements spec.md §4.11: the policy callbacks an Engine
// consults to decide how a memory or table type is realized as concrete
// storage. Expressed as an interface (rather than a struct of function
// pointers, wasmer's lib/api/src/sys/engine/mod.rs shape) per
// SPEC_FULL.md's Open Question resolution, so embedders can supply a
// from-scratch policy (quotas, custom backends) without wrapping a
// default.
package tunables

import (
	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/table"
)

// MemoryType mirrors a parsed Wasm memory type (spec.md §3).
type MemoryType struct {
	Minimum uint32
	Maximum *uint32
	Shared  bool
}

// TableType mirrors a parsed Wasm table type (spec.md §3).
type TableType struct {
	Element api.ValueType
	Minimum uint32
	Maximum *uint32
}

// Pointer-width-keyed defaults from spec.md §4.6's table.
const (
	staticMemoryBound32 = 0x4000       // pages
	staticMemoryBound64 = 0x1_0000     // pages (4 GiB)
	staticOffsetGuard32 = 64 * 1 << 10 // 64 KiB
	staticOffsetGuard64 = 2 << 30      // 2 GiB
	dynamicOffsetGuard  = 64 * 1 << 10 // 64 KiB; Windows doubles this, see NewDefault.
)

// Tunables is the policy contract of spec.md §4.11.
type Tunables interface {
	MemoryStyle(t MemoryType) memory.Config
	TableStyle(t TableType) table.Type
	CreateHostMemory(t MemoryType) (*memory.Memory, error)
	CreateVMMemory(t MemoryType) (*memory.Memory, error)
	CreateHostTable(t TableType) (*table.Table, error)
	CreateVMTable(t TableType) (*table.Table, error)
}

// Default is the Tunables every Engine uses unless an embedder supplies
// their own (spec.md §4.11): a heap whose maximum fits under the
// pointer-width's static_memory_bound becomes Static, else Dynamic; tables
// are always CallerChecksSignature (internal/table's only Table shape, so
// TableStyle is metadata-only here).
type Default struct {
	Is64Bit bool
	Windows bool
}

// NewDefault returns the Default Tunables for a 64-bit non-Windows host,
// the common case for wasmcore's compiled-in reference backend.
func NewDefault() Default {
	return Default{Is64Bit: true}
}

func (d Default) staticBound() uint32 {
	if d.Is64Bit {
		return staticMemoryBound64
	}
	return staticMemoryBound32
}

func (d Default) staticGuard() uint64 {
	if d.Is64Bit {
		return staticOffsetGuard64
	}
	return staticOffsetGuard32
}

func (d Default) dynamicGuard() uint64 {
	if d.Windows {
		return dynamicOffsetGuard * 2
	}
	return dynamicOffsetGuard
}

// MemoryStyle implements Tunables.
func (d Default) MemoryStyle(t MemoryType) memory.Config {
	bound := d.staticBound()
	if t.Maximum != nil && *t.Maximum <= bound {
		return memory.Config{
			Minimum:         t.Minimum,
			Maximum:         t.Maximum,
			Shared:          t.Shared,
			Style:           memory.StyleStatic,
			Bound:           bound,
			OffsetGuardSize: d.staticGuard(),
		}
	}
	return memory.Config{
		Minimum:         t.Minimum,
		Maximum:         t.Maximum,
		Shared:          t.Shared,
		Style:           memory.StyleDynamic,
		OffsetGuardSize: d.dynamicGuard(),
	}
}

// TableStyle implements Tunables. CallerChecksSignature is the only table
// shape the core implements (spec.md §4.7), so this exists to keep the
// interface symmetric with MemoryStyle and to give embedders a seam if a
// second style is ever added.
func (d Default) TableStyle(t TableType) table.Type {
	return table.Type{Element: t.Element, Minimum: t.Minimum, Maximum: t.Maximum}
}

// CreateHostMemory creates a Memory for a host-declared (imported-from-host)
// memory type.
func (d Default) CreateHostMemory(t MemoryType) (*memory.Memory, error) {
	return memory.New(d.MemoryStyle(t))
}

// CreateVMMemory creates a Memory for a locally-defined memory inside a
// module being instantiated.
func (d Default) CreateVMMemory(t MemoryType) (*memory.Memory, error) {
	return memory.New(d.MemoryStyle(t))
}

// CreateHostTable creates a Table for a host-declared table type.
func (d Default) CreateHostTable(t TableType) (*table.Table, error) {
	ts := d.TableStyle(t)
	return table.New(ts.Element, ts.Minimum, ts.Maximum), nil
}

// CreateVMTable creates a Table for a locally-defined table.
func (d Default) CreateVMTable(t TableType) (*table.Table, error) {
	ts := d.TableStyle(t)
	return table.New(ts.Element, ts.Minimum, ts.Maximum), nil
}
