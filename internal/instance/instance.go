package instance

import (
	"fmt"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/global"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/refcompiler"
	"github.com/wasmcore/runtime/internal/store"
	"github.com/wasmcore/runtime/internal/table"
	"github.com/wasmcore/runtime/internal/trap"
)

// Instance is one runtime incarnation of an Artifact (spec.md §4.5): the
// VMContext block this instantiation owns for as long as the Instance
// itself is reachable, plus its exports indexed by name.
type Instance struct {
	Artifact  *artifact.Artifact
	VMContext *VMContext

	// Store owns this Instance's locally-defined memories, tables,
	// globals and functions (spec.md §3): every one of them is allocated
	// into it during Instantiate rather than just kept as a bare Go
	// slice, so a handle minted for this Instance's objects panics if
	// ever presented to a different Instance's Store (spec.md §9).
	Store *store.Store

	execCtx       *refcompiler.ExecContext
	exports       map[string]Extern
	memoryHandles map[string]store.Handle[memory.Memory]
	frames        *trap.FrameStack
	interrupt     *trap.Interrupter
}

// MemoryHandle returns the Store handle backing the exported memory name,
// if name is both exported and locally defined by this Instance (an
// imported memory is owned by a different Instance's Store and has no
// handle here). Presenting the returned handle to any Store other than
// this Instance's own panics (spec.md §9).
func (in *Instance) MemoryHandle(name string) (store.Handle[memory.Memory], bool) {
	h, ok := in.memoryHandles[name]
	return h, ok
}

// Interrupter returns the Interrupter a host can use to request that a
// long-running call inside this Instance trap at its next cooperative
// safepoint (spec.md §4.8).
func (in *Instance) Interrupter() *trap.Interrupter { return in.interrupt }

// Export looks up one of the Instance's exports by name.
func (in *Instance) Export(name string) (Extern, bool) {
	e, ok := in.exports[name]
	return e, ok
}

// Call invokes the exported function name with args, wrapped in the same
// catch_traps boundary spec.md §4.8 requires at the top of a guest call.
func (in *Instance) Call(name string, args []call.Value) (results []call.Value, err error) {
	e, ok := in.exports[name]
	if !ok || e.Kind != api.ExternTypeFunc {
		return nil, fmt.Errorf("instance: no exported function %q", name)
	}
	t := call.Trampoline{Signature: e.FuncSignature, FuncName: name}
	err = trap.CatchTraps(func() {
		results = t.Call(e.Func, args, in.frames, in.interrupt)
	})
	return results, err
}

// Instantiate implements spec.md §4.4's instantiate(imports, host_state)
// sequence: resolve imports, create locally-defined memories/tables/
// globals through the Artifact's Tunables, assemble the VMContext, apply
// element and data segments in module order, and run the start function if
// one is declared.
//
// A non-nil error returned alongside a non-nil Instance means a segment or
// the start function trapped: per spec.md §4.4, a trap during these steps
// does not leak the partially-built instance — the caller still receives a
// valid Instance reflecting whatever was applied before the trap fired,
// mirroring internal/codemem's "failure before publish is safe" posture.
func Instantiate(art *artifact.Artifact, imports *Imports) (*Instance, error) {
	m := art.Module

	var importedFuncs []ImportedFunction
	var importedMemories []ImportedMemory
	var importedTables []ImportedTable
	var importedGlobals []ImportedGlobal

	st := store.New()

	combinedFuncs := make([]call.GuestFunc, 0, len(m.FunctionSignatures))
	var combinedMemories []*memory.Memory
	var combinedTables []*table.Table
	var combinedGlobals []*global.Global

	// combinedMemoryHandles parallels combinedMemories: a zero Handle for
	// an imported memory (owned by a different Instance's Store, so this
	// Instance mints no handle for it), a real one for a locally-defined
	// memory allocated into st below.
	var combinedMemoryHandles []store.Handle[memory.Memory]

	for _, imp := range m.Imports {
		e, ok := imports.lookup(imp.Namespace, imp.Name)
		if !ok {
			return nil, &MissingImportError{Namespace: imp.Namespace, Name: imp.Name}
		}
		switch imp.Kind {
		case artifact.ImportFunc:
			if e.Kind != api.ExternTypeFunc {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "expected a function"}
			}
			if !e.FuncSignature.Equal(imp.FuncSignature) {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, fmt.Sprintf("signature %s does not match expected %s", e.FuncSignature, imp.FuncSignature)}
			}
			importedFuncs = append(importedFuncs, ImportedFunction{Definition: e.Func})
			combinedFuncs = append(combinedFuncs, e.Func)
		case artifact.ImportMemory:
			if e.Kind != api.ExternTypeMemory {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "expected a memory"}
			}
			importedMemories = append(importedMemories, ImportedMemory{Definition: e.Memory})
			combinedMemories = append(combinedMemories, e.Memory)
			combinedMemoryHandles = append(combinedMemoryHandles, store.Handle[memory.Memory]{})
		case artifact.ImportTable:
			if e.Kind != api.ExternTypeTable {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "expected a table"}
			}
			if e.Table.Type != imp.TableType.Element {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "element type mismatch"}
			}
			importedTables = append(importedTables, ImportedTable{Definition: e.Table})
			combinedTables = append(combinedTables, e.Table)
		case artifact.ImportGlobal:
			if e.Kind != api.ExternTypeGlobal {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "expected a global"}
			}
			if e.Global.Type != imp.GlobalType || e.Global.Mutable != imp.GlobalMutable {
				return nil, &ImportTypeMismatchError{imp.Namespace, imp.Name, "type or mutability mismatch"}
			}
			importedGlobals = append(importedGlobals, ImportedGlobal{Definition: e.Global})
			combinedGlobals = append(combinedGlobals, e.Global)
		}
	}

	var localMemories []*memory.Memory
	for _, mt := range m.Memories {
		mem, err := art.Tunables.CreateVMMemory(mt)
		if err != nil {
			return nil, fmt.Errorf("instance: create memory: %w", err)
		}
		localMemories = append(localMemories, mem)
		combinedMemories = append(combinedMemories, mem)
		combinedMemoryHandles = append(combinedMemoryHandles, st.AllocMemory(mem))
	}

	var localTables []*table.Table
	for _, tt := range m.Tables {
		tbl, err := art.Tunables.CreateVMTable(tt)
		if err != nil {
			return nil, fmt.Errorf("instance: create table: %w", err)
		}
		localTables = append(localTables, tbl)
		combinedTables = append(combinedTables, tbl)
		st.AllocTable(tbl)
	}

	var localGlobals []*global.Global
	for _, gi := range m.Globals {
		g := global.New(gi.Type, gi.Mutable, gi.InitLo, gi.InitHi)
		localGlobals = append(localGlobals, g)
		combinedGlobals = append(combinedGlobals, g)
		st.AllocGlobal(g)
	}

	execCtx := &refcompiler.ExecContext{
		FunctionSigs: m.FunctionSignatures,
		Signatures:   art.Signatures,
		Frames:       &trap.FrameStack{},
		Interrupt:    &trap.Interrupter{},
	}
	if len(combinedMemories) > 0 {
		execCtx.Memory = combinedMemories[0]
	}

	// Local functions close over execCtx so recursive and mutually
	// recursive calls resolve through the one ExecContext every compiled
	// body of this instance shares. Each also gets a placeholder
	// FunctionObject allocated into st, giving every locally-defined VM
	// object (not just memories/tables/globals) a Store-owned identity.
	for _, cf := range art.Functions {
		entry := cf.Entry
		st.AllocFunction(&store.FunctionObject{})
		combinedFuncs = append(combinedFuncs, func(args []call.Value) []call.Value {
			return entry(execCtx, args)
		})
	}
	execCtx.Functions = combinedFuncs

	vmctx := &VMContext{
		LocalMemories:     localMemories,
		LocalTables:       localTables,
		LocalGlobals:      localGlobals,
		ImportedMemories:  importedMemories,
		ImportedTables:    importedTables,
		ImportedGlobals:   importedGlobals,
		ImportedFunctions: importedFuncs,
	}
	for _, sig := range m.FunctionSignatures {
		vmctx.SharedSignatureIndex = append(vmctx.SharedSignatureIndex, art.Signatures.Register(sig))
	}

	if len(combinedTables) > 0 {
		execCtx.Table = combinedTables[0]
		execCtx.TableFuncs = make([]call.GuestFunc, combinedTables[0].Len())
	}

	in := &Instance{
		Artifact:      art,
		VMContext:     vmctx,
		Store:         st,
		execCtx:       execCtx,
		exports:       make(map[string]Extern),
		memoryHandles: make(map[string]store.Handle[memory.Memory]),
		frames:        execCtx.Frames,
		interrupt:     execCtx.Interrupt,
	}

	for _, exp := range m.Exports {
		switch exp.Kind {
		case api.ExternTypeFunc:
			in.exports[exp.Name] = Extern{Kind: exp.Kind, FuncSignature: m.FunctionSignatures[exp.Index], Func: combinedFuncs[exp.Index]}
		case api.ExternTypeMemory:
			in.exports[exp.Name] = Extern{Kind: exp.Kind, Memory: combinedMemories[exp.Index]}
			if h := combinedMemoryHandles[exp.Index]; !h.Zero() {
				in.memoryHandles[exp.Name] = h
			}
		case api.ExternTypeTable:
			in.exports[exp.Name] = Extern{Kind: exp.Kind, Table: combinedTables[exp.Index]}
		case api.ExternTypeGlobal:
			in.exports[exp.Name] = Extern{Kind: exp.Kind, Global: combinedGlobals[exp.Index]}
		}
	}

	if segErr := trap.CatchTraps(func() {
		applySegments(m, combinedFuncs, combinedTables, combinedMemories, execCtx)
	}); segErr != nil {
		return in, segErr
	}

	if m.Start != nil {
		startErr := trap.CatchTraps(func() {
			fn := combinedFuncs[*m.Start]
			sig := m.FunctionSignatures[*m.Start]
			call.Trampoline{Signature: sig, FuncIndex: int(*m.Start), FuncName: "start"}.Call(fn, nil, execCtx.Frames, execCtx.Interrupt)
		})
		if startErr != nil {
			return in, startErr
		}
	}

	return in, nil
}

// applySegments copies element segments into tables and data segments into
// memories, in module order (spec.md §4.4 step 4). Out-of-bounds offsets
// trap via the same TrapCodes a guest table.get/memory.load would raise.
func applySegments(m *artifact.Module, funcs []call.GuestFunc, tables []*table.Table, memories []*memory.Memory, execCtx *refcompiler.ExecContext) {
	for _, elem := range m.ElementInitializers {
		tbl := tables[elem.TableIndex]
		for i, fidx := range elem.FuncIndices {
			idx := elem.Offset + uint32(i)
			sigIdx := execCtx.Signatures.Register(m.FunctionSignatures[fidx])
			if !tbl.Set(idx, table.Element{FuncSig: sigIdx}) {
				trap.Raise(api.TrapCodeTableOutOfBounds, execCtx.Frames.Snapshot())
			}
			if execCtx.Table == tbl && int(idx) < len(execCtx.TableFuncs) {
				execCtx.TableFuncs[idx] = funcs[fidx]
			}
		}
	}

	for _, data := range m.DataInitializers {
		mem := memories[data.MemoryIndex]
		bytes := mem.Bytes()
		end := uint64(data.Offset) + uint64(len(data.Bytes))
		if end > uint64(len(bytes)) {
			trap.Raise(api.TrapCodeHeapOutOfBounds, execCtx.Frames.Snapshot())
		}
		copy(bytes[data.Offset:], data.Bytes)
	}
}
