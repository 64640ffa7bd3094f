package wasmcore

import (
	"context"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/funcenv"
	"github.com/wasmcore/runtime/internal/global"
	"github.com/wasmcore/runtime/internal/instance"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/store"
	"github.com/wasmcore/runtime/internal/table"
)

// ImportSet is the set of externs a CompiledModule's Instantiate resolves
// imports against, grounded on wazero's builder.go: host functions,
// memories, tables, and globals are registered under a namespace before
// instantiation, the same (namespace, name) addressing spec.md §6 defines
// for imports.
type ImportSet struct {
	imports *instance.Imports
}

// NewImportSet returns an empty ImportSet.
func NewImportSet() *ImportSet {
	return &ImportSet{imports: instance.NewImports()}
}

// HostModuleBuilder accumulates host functions under one namespace before
// they're merged into an ImportSet.
type HostModuleBuilder struct {
	namespace string
	set       *ImportSet
}

// NewHostModuleBuilder starts a HostModuleBuilder for namespace, merging
// its functions into set as each is exported.
func NewHostModuleBuilder(set *ImportSet, namespace string) *HostModuleBuilder {
	return &HostModuleBuilder{namespace: namespace, set: set}
}

// ExportFunction defines a Go function as a host import, adapting it via
// the Static ABI (internal/call.NewStaticHostFunc): fn may optionally take
// a leading context.Context, followed by scalar numeric parameters, and
// return scalar numeric results optionally followed by a trailing error.
func (b *HostModuleBuilder) ExportFunction(ctx context.Context, name string, fn any) error {
	h, err := call.NewStaticHostFunc(fn)
	if err != nil {
		return err
	}
	guest := instance.AdaptHostFunc(ctx, h.Invoke)
	b.set.imports.DefineFunc(b.namespace, name, h.Signature, guest)
	return nil
}

// ExportStatefulFunction defines a Go function as a host import backed by a
// funcenv.FunctionEnv[T]: fn receives a *funcenv.FunctionEnvMut[T] bundling
// the env's current host state with the Store it lives in, ahead of the
// call's own context and Dynamic ABI argument buffer
// (internal/call.DynamicHostFunc's (context, []call.Value) ->
// ([]call.Value, error) convention). sig must describe fn's Wasm-visible
// signature, since unlike ExportFunction's Static ABI nothing about fn's Go
// type lets wasmcore infer it.
//
// Grounded on wasmer's FunctionEnv<T>-aware host functions
// (_examples/original_source's lib/api/src/backend/sys/entities/function/env.rs):
// the state lives in s, addressed by the handle the returned FunctionEnv
// wraps, rather than captured directly in fn's closure, so a host can read
// or write it from outside the call too (e.g. to seed it before the first
// call, or inspect it after the last one).
func ExportStatefulFunction[T any](b *HostModuleBuilder, s *store.Store, ctx context.Context, name string, sig api.FuncType, init T, fn func(*funcenv.FunctionEnvMut[T], context.Context, []call.Value) ([]call.Value, error)) funcenv.FunctionEnv[T] {
	env := funcenv.New(s, init)
	dyn := call.NewDynamicHostFunc(sig, func(ctx context.Context, args []call.Value) ([]call.Value, error) {
		return fn(env.AsMut(s), ctx, args)
	})
	guest := instance.AdaptHostFunc(ctx, dyn.Invoke)
	b.set.imports.DefineFunc(b.namespace, name, sig, guest)
	return env
}

// ExportMemory defines mem as a host-owned import.
func (b *HostModuleBuilder) ExportMemory(name string, mem *memory.Memory) {
	b.set.imports.DefineMemory(b.namespace, name, mem)
}

// ExportTable defines tbl as a host-owned import.
func (b *HostModuleBuilder) ExportTable(name string, tbl *table.Table) {
	b.set.imports.DefineTable(b.namespace, name, tbl)
}

// ExportGlobal defines g as a host-owned import.
func (b *HostModuleBuilder) ExportGlobal(name string, g *global.Global) {
	b.set.imports.DefineGlobal(b.namespace, name, g)
}

// ExportInstance imports every export of an already-instantiated Instance
// under namespace, the module-linking convention spec.md §4.5 describes
// ("instantiate A, then use A's exports as B's imports").
func ExportInstance(set *ImportSet, namespace string, in *Instance) {
	set.imports.DefineInstance(namespace, in.in)
}
