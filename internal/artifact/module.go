// Package artifact implements spec.md §4.4: the immutable compiled form of a
// Wasm module, produced either by compiling a parsed Module or by
// deserializing a previously serialized one, and instantiable into an
// Instance given a set of resolved imports.
//
// Grounded on wazero's split between internal/wasm.Module (the parsed,
// pre-compilation IR) and the per-engine compiled artifact kept alongside
// it (wazevo's compiledModule, interpreter's interpreter's own
// compiledFunction slice); wasmcore keeps the same two-layer shape as
// Module (this file) and Artifact (artifact.go).
package artifact

import (
	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/refcompiler"
	"github.com/wasmcore/runtime/internal/tunables"
)

// ImportKind says what an Import resolves to (spec.md §3).
type ImportKind int

const (
	ImportFunc ImportKind = iota
	ImportMemory
	ImportTable
	ImportGlobal
)

// Import is one entry of a Module's import section, identified by
// (namespace, name) per spec.md §6.
type Import struct {
	Namespace string
	Name      string
	Kind      ImportKind

	FuncSignature api.FuncType          // meaningful when Kind == ImportFunc.
	MemoryType    tunables.MemoryType   // meaningful when Kind == ImportMemory.
	TableType     tunables.TableType    // meaningful when Kind == ImportTable.
	GlobalType    api.ValueType         // meaningful when Kind == ImportGlobal.
	GlobalMutable bool                  // meaningful when Kind == ImportGlobal.
}

// Export is one entry of a Module's export section.
type Export struct {
	Name  string
	Kind  api.ExternType
	Index uint32 // index into the module-order space of that kind (imports first, then locals).
}

// GlobalInit describes a locally-defined global's type and constant
// initializer value (spec.md §4.4 step 2: "evaluating their const init
// expressions" — wasmcore requires the initializer already evaluated to a
// concrete value, since evaluating init-expr bytecode is a parser/validator
// concern external to the core per spec.md §6).
type GlobalInit struct {
	Type    api.ValueType
	Mutable bool
	InitLo  uint64
	InitHi  uint64 // meaningful only for v128 globals.
}

// DataInit is one data segment: bytes to copy into a memory at an offset,
// applied in module order during instantiation (spec.md §4.4 step 4).
type DataInit struct {
	MemoryIndex uint32
	Offset      uint32
	Bytes       []byte
}

// ElemInit is one element segment: function indices to place into a table
// at an offset.
type ElemInit struct {
	TableIndex  uint32
	Offset      uint32
	FuncIndices []uint32
}

// CustomSection is an opaque, named byte blob carried through compilation
// and serialization unmodified (spec.md §4.4).
type CustomSection struct {
	Name string
	Data []byte
}

// Module is the parsed form of a Wasm module (spec.md §6's parser → core
// interface): ordered imports/exports, local function bodies, and
// initializers. wasmcore does not implement a Wasm binary decoder itself
// (spec.md §6 defines that boundary as an external collaborator); a Module
// is constructed directly, the shape a real decoder would hand to the
// core's compile step.
type Module struct {
	Name string

	Imports []Import
	Exports []Export

	// FunctionSignatures covers every function in module index order:
	// imported functions first, then Functions (locally defined), indexed
	// identically to how VMContext's ImportedFunction[]/LocalFunction
	// region is laid out (spec.md §6).
	FunctionSignatures []api.FuncType
	Functions          []refcompiler.FuncBody // locally-defined function bodies only.

	Memories []tunables.MemoryType // locally-defined memories.
	Tables   []tunables.TableType  // locally-defined tables.
	Globals  []GlobalInit          // locally-defined globals.

	DataInitializers    []DataInit
	ElementInitializers []ElemInit

	Start *uint32 // index, in the imports-then-locals function space.

	CustomSections []CustomSection
}

// importedFuncCount returns how many imported functions exist, i.e. how
// many import entries of kind ImportFunc precede Functions in index space.
func (m *Module) importedFuncCount() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == ImportFunc {
			n++
		}
	}
	return n
}
