// Package funcenv implements the Function Env VM object of spec.md §4.12:
// a host-state slot attached to a host-imported function, stored inside the
// owning Store's object arena and accessed by a typed handle.
//
// Grounded on wasmer's lib/api/src/backend/sys/entities/function/env.rs
// (_examples/original_source), which makes FunctionEnv<T> generic over the
// host state type and requires a &mut Store to write it back; wasmcore
// expresses the same shape with Go generics instead of a borrow-checked
// Rust API, enforcing the "no &T outlives a mutating call" rule by
// construction: FunctionEnvMut[T] always copies T out, lets the host
// mutate its own copy, and writes it back through Store.SetHostState
// rather than handing out a live pointer into the Store's arena.
package funcenv

import "github.com/wasmcore/runtime/internal/store"

// FunctionEnv[T] names one T-typed host-state slot inside a Store.
type FunctionEnv[T any] struct {
	handle store.Handle[any]
}

// New allocates a new host-state slot in s holding init, and returns a
// handle to it.
func New[T any](s *store.Store, init T) FunctionEnv[T] {
	return FunctionEnv[T]{handle: s.AllocHostState(init)}
}

// AsRef returns the current value of the env's state. Read-only: it never
// observes a write concurrent with this call, because the Store is
// single-threaded-cooperative (spec.md §5).
func (e FunctionEnv[T]) AsRef(s *store.Store) T {
	v := s.HostState(e.handle)
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// AsMut returns a FunctionEnvMut bundling a mutable Store reference with
// this env's handle, so a host function can both read/write T and re-enter
// the Store to call other exports. Mirrors wasmer's
// FunctionEnvMut::data_mut, but materialized explicitly (rather than via
// borrow-checking) because Go has no borrow checker to enforce "no &T
// outlives a mutating call": Data() returns a copy of T, and a change to
// that copy reaches the Store only when it is written back with SetData.
func (e FunctionEnv[T]) AsMut(s *store.Store) *FunctionEnvMut[T] {
	return &FunctionEnvMut[T]{store: s, env: e}
}

// FunctionEnvMut is a temporary handle bundling a *store.Store with a
// FunctionEnv[T], permitting the host state to be read with Data and
// replaced with SetData.
type FunctionEnvMut[T any] struct {
	store *store.Store
	env   FunctionEnv[T]
}

// Data returns the current host state by value.
func (m *FunctionEnvMut[T]) Data() T {
	return m.env.AsRef(m.store)
}

// SetData writes v back into the Store's arena.
func (m *FunctionEnvMut[T]) SetData(v T) {
	m.store.SetHostState(m.env.handle, v)
}

// Store returns the underlying Store, letting a host function re-enter it
// (e.g. to call another export) while holding this FunctionEnvMut.
func (m *FunctionEnvMut[T]) Store() *store.Store {
	return m.store
}
