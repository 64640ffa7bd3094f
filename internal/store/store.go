// Package store implements the Store and StoreHandle[K] of spec.md §3: the
// process-addressable root that owns every VM object's arena, and the
// cheap-to-clone (StoreId, index) handles that name one object inside it
// without letting two Stores' objects alias each other.
//
// Grounded on the teacher's (tetratelabs/wazero) habit of keying runtime
// state off a dense, monotonic wasm.ModuleID rather than a full UUID on the
// hot path; wasmcore mints StoreId the same way, and only decorates it with
// a github.com/google/uuid label for String()/debug-log purposes, per
// SPEC_FULL.md's Domain Stack.
package store

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wasmcore/runtime/internal/global"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/table"
)

// StoreId is a monotonically-unique identifier minted per Store. Every
// object records the StoreId of its owner; presenting a handle to any other
// Store is a programmer error (spec.md §9: "preserve at least the
// panic-on-misuse behavior").
type StoreId uint64

var nextStoreId atomic.Uint64

func newStoreId() StoreId {
	return StoreId(nextStoreId.Add(1))
}

// Store is the owning root of a set of VM objects (spec.md §3). It is not
// safe for concurrent use by more than one goroutine at a time: the
// concurrency model (spec.md §5) is single-threaded cooperative within a
// Store.
type Store struct {
	id    StoreId
	label string // decorative, from uuid; never used for equality or lookups.

	functions  arena[FunctionObject]
	tables     arena[table.Table]
	memories   arena[memory.Memory]
	globals    arena[global.Global]
	tags       arena[TagObject]
	hostStates arena[any]
}

// New returns a fresh, empty Store with a StoreId unique within this
// process.
func New() *Store {
	return &Store{id: newStoreId(), label: uuid.NewString()}
}

// Id returns the Store's identifier.
func (s *Store) Id() StoreId { return s.id }

// String implements fmt.Stringer for debug logging, e.g. "store#4/3fae2b1e".
func (s *Store) String() string {
	return fmt.Sprintf("store#%d/%s", s.id, s.label)
}

// FunctionObject is the VM-side record for one function instance, covering
// both locally-defined and host-imported functions (spec.md §3).
type FunctionObject struct {
	Signature uintptr // placeholder identity; callers compare via sigreg.Index stored alongside.
	Entry     *byte   // FunctionBodyPtr, see spec.md §3.
	VMContext uintptr // the owning Instance's VMContext address.
}

// TagObject identifies a class of thrown exception values by signature
// (spec.md §3).
type TagObject struct {
	Signature uintptr
}

// arena is an owning, append-only store of *T, indexed densely from 0.
// Items are never removed individually: a Store's objects live exactly as
// long as the Store (spec.md §3invariant), so the only bulk-release point
// is dropping the whole Store.
type arena[T any] struct {
	items []*T
}

func (a *arena[T]) alloc(v *T) int {
	a.items = append(a.items, v)
	return len(a.items) - 1
}

func (a *arena[T]) get(i int) *T {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *arena[T]) len() int { return len(a.items) }

// Handle is a (StoreId, index) pair naming one object of kind T inside a
// Store (spec.md §3's StoreHandle<K>). It is a plain value: cheap to copy,
// compare, and pass around. Dereferencing it requires presenting the owning
// Store via the Store accessor for its kind (Function, Table, Memory,
// Global, Tag, HostState), which panics on a
// cross-store handle rather than silently aliasing the wrong Store's arena.
type Handle[T any] struct {
	storeId StoreId
	index   int
}

// Zero reports whether h is the zero Handle (never returned by an Alloc
// call).
func (h Handle[T]) Zero() bool { return h.storeId == 0 && h.index == 0 }

// Index returns the dense index this handle names, for embedding into
// compiled-code-visible tables (e.g. a funcref table slot) that need a flat
// integer rather than a full Handle.
func (h Handle[T]) Index() int { return h.index }

func checkStore(storeId StoreId, s *Store, kind string) {
	if storeId != s.id {
		panic(fmt.Sprintf("wasmcore: %s handle from store %d used with store %d", kind, storeId, s.id))
	}
}

// AllocFunction inserts fn into s's function arena and returns its handle.
func (s *Store) AllocFunction(fn *FunctionObject) Handle[FunctionObject] {
	return Handle[FunctionObject]{storeId: s.id, index: s.functions.alloc(fn)}
}

// Function dereferences h against s, panicking if h was minted by a
// different Store.
func (s *Store) Function(h Handle[FunctionObject]) *FunctionObject {
	checkStore(h.storeId, s, "function")
	return s.functions.get(h.index)
}

// AllocTable inserts t into s's table arena and returns its handle.
func (s *Store) AllocTable(t *table.Table) Handle[table.Table] {
	return Handle[table.Table]{storeId: s.id, index: s.tables.alloc(t)}
}

// Table dereferences h against s.
func (s *Store) Table(h Handle[table.Table]) *table.Table {
	checkStore(h.storeId, s, "table")
	return s.tables.get(h.index)
}

// AllocMemory inserts m into s's memory arena and returns its handle.
func (s *Store) AllocMemory(m *memory.Memory) Handle[memory.Memory] {
	return Handle[memory.Memory]{storeId: s.id, index: s.memories.alloc(m)}
}

// Memory dereferences h against s.
func (s *Store) Memory(h Handle[memory.Memory]) *memory.Memory {
	checkStore(h.storeId, s, "memory")
	return s.memories.get(h.index)
}

// AllocGlobal inserts g into s's global arena and returns its handle.
func (s *Store) AllocGlobal(g *global.Global) Handle[global.Global] {
	return Handle[global.Global]{storeId: s.id, index: s.globals.alloc(g)}
}

// Global dereferences h against s.
func (s *Store) Global(h Handle[global.Global]) *global.Global {
	checkStore(h.storeId, s, "global")
	return s.globals.get(h.index)
}

// AllocTag inserts t into s's tag arena and returns its handle.
func (s *Store) AllocTag(t *TagObject) Handle[TagObject] {
	return Handle[TagObject]{storeId: s.id, index: s.tags.alloc(t)}
}

// Tag dereferences h against s.
func (s *Store) Tag(h Handle[TagObject]) *TagObject {
	checkStore(h.storeId, s, "tag")
	return s.tags.get(h.index)
}

// AllocHostState inserts v (arbitrary host-owned state attached to a
// HostFunctionEnv, spec.md §3) into s's host-state arena and returns its
// handle. The funcenv package builds its typed FunctionEnv[T] on top of
// this.
func (s *Store) AllocHostState(v any) Handle[any] {
	return Handle[any]{storeId: s.id, index: s.hostStates.alloc(&v)}
}

// HostState dereferences h against s.
func (s *Store) HostState(h Handle[any]) any {
	checkStore(h.storeId, s, "host state")
	p := s.hostStates.get(h.index)
	if p == nil {
		return nil
	}
	return *p
}

// SetHostState overwrites the state behind h. Used by FunctionEnvMut[T] to
// implement as_mut's write-back.
func (s *Store) SetHostState(h Handle[any], v any) {
	checkStore(h.storeId, s, "host state")
	p := s.hostStates.get(h.index)
	if p != nil {
		*p = v
	}
}

// FunctionCount, TagCount and HostStateCount expose arena sizes, mostly for
// tests and diagnostics.
func (s *Store) FunctionCount() int  { return s.functions.len() }
func (s *Store) TableCount() int     { return s.tables.len() }
func (s *Store) MemoryCount() int    { return s.memories.len() }
func (s *Store) GlobalCount() int    { return s.globals.len() }
func (s *Store) TagCount() int       { return s.tags.len() }
func (s *Store) HostStateCount() int { return s.hostStates.len() }
