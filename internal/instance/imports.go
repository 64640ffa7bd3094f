// Package instance implements spec.md §4.5: one runtime incarnation of an
// Artifact with resolved imports and initialized memories/tables/globals,
// owning its VMContext block for as long as the Instance is reachable.
//
// Grounded on wazero's internal/wasm.ModuleInstance (the per-instantiation
// object holding resolved import bindings and locally-defined state
// alongside the shared, immutable compiled module).
package instance

import (
	"fmt"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/global"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/table"
)

// Extern is one resolved import or export value, tagged by kind (spec.md
// §6: "Register a host function into an Imports structure ... carrying a
// FuncType").
type Extern struct {
	Kind api.ExternType

	FuncSignature api.FuncType
	Func          call.GuestFunc // non-nil iff Kind == api.ExternTypeFunc.

	Memory *memory.Memory
	Table  *table.Table
	Global *global.Global
}

// Imports is a (namespace, name)-keyed set of externs a host assembles
// before calling Instantiate, matching the "Imports structure" spec.md §6
// describes host-function authors registering against.
type Imports struct {
	entries map[string]Extern
}

// NewImports returns an empty Imports set.
func NewImports() *Imports {
	return &Imports{entries: make(map[string]Extern)}
}

func key(namespace, name string) string { return namespace + "\x00" + name }

// DefineFunc registers a host function import.
func (im *Imports) DefineFunc(namespace, name string, sig api.FuncType, fn call.GuestFunc) {
	im.entries[key(namespace, name)] = Extern{Kind: api.ExternTypeFunc, FuncSignature: sig, Func: fn}
}

// DefineMemory registers a host memory import.
func (im *Imports) DefineMemory(namespace, name string, m *memory.Memory) {
	im.entries[key(namespace, name)] = Extern{Kind: api.ExternTypeMemory, Memory: m}
}

// DefineTable registers a host table import.
func (im *Imports) DefineTable(namespace, name string, t *table.Table) {
	im.entries[key(namespace, name)] = Extern{Kind: api.ExternTypeTable, Table: t}
}

// DefineGlobal registers a host global import.
func (im *Imports) DefineGlobal(namespace, name string, g *global.Global) {
	im.entries[key(namespace, name)] = Extern{Kind: api.ExternTypeGlobal, Global: g}
}

// DefineInstance imports every export of other under namespace, the common
// case of wiring one Instance's exports as another's imports.
func (im *Imports) DefineInstance(namespace string, other *Instance) {
	for name, e := range other.exports {
		im.entries[key(namespace, name)] = e
	}
}

func (im *Imports) lookup(namespace, name string) (Extern, bool) {
	e, ok := im.entries[key(namespace, name)]
	return e, ok
}

// MissingImportError reports an import Instantiate could not resolve
// (spec.md §4.4 step 1 / §7's LinkError).
type MissingImportError struct {
	Namespace, Name string
}

func (e *MissingImportError) Error() string {
	return fmt.Sprintf("instance: missing import %q.%q", e.Namespace, e.Name)
}

// ImportTypeMismatchError reports an import resolved to a value of the
// wrong kind or an incompatible signature/type.
type ImportTypeMismatchError struct {
	Namespace, Name string
	Reason          string
}

func (e *ImportTypeMismatchError) Error() string {
	return fmt.Sprintf("instance: import %q.%q type mismatch: %s", e.Namespace, e.Name, e.Reason)
}
