package instance

import (
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/global"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/table"
)

// ImportedMemory, ImportedTable, ImportedGlobal and ImportedFunction are the
// two-word records spec.md §6 describes for an imported VM object: the
// definition itself plus the owning Instance's VMContext, needed so a
// compiled access through an imported memory/table/global resolves to the
// right Instance rather than the importing one. Instantiate fills only
// Definition; it leaves Owner nil in every record it builds.
type ImportedMemory struct {
	Definition *memory.Memory
	Owner      *VMContext
}

type ImportedTable struct {
	Definition *table.Table
	Owner      *VMContext
}

type ImportedGlobal struct {
	Definition *global.Global
	Owner      *VMContext
}

type ImportedFunction struct {
	Definition call.GuestFunc
	Owner      *VMContext
}

// VMContext is wasmcore's realization of spec.md §6's fixed-offset VMContext
// layout: eight pointer-array slots in a documented order, walked by
// compiled code via constant offsets from the VMContext pointer passed to
// every call.
//
//	offset 0: LocalMemory[]
//	offset 1: LocalTable[]
//	offset 2: LocalGlobal[]
//	offset 3: ImportedMemory[]
//	offset 4: ImportedTable[]
//	offset 5: ImportedGlobal[]
//	offset 6: ImportedFunction[]
//	offset 7: SharedSignatureIndex[]
//
// wasmcore's one shipped backend (internal/refcompiler) is an interpreter
// that reads these through internal/refcompiler.ExecContext's typed fields
// rather than raw pointer arithmetic at fixed byte offsets — it has no
// generated machine code that needs constant offsets to begin with — but
// VMContext itself still carries the full eight-slot shape so the contract
// a real codegen backend would walk is complete and independently
// inspectable, and so an Instance has one single owned block that
// determines its exports' lifetime regardless of backend.
type VMContext struct {
	LocalMemories []*memory.Memory
	LocalTables   []*table.Table
	LocalGlobals  []*global.Global

	ImportedMemories  []ImportedMemory
	ImportedTables    []ImportedTable
	ImportedGlobals   []ImportedGlobal
	ImportedFunctions []ImportedFunction

	SharedSignatureIndex []sigreg.Index
}
