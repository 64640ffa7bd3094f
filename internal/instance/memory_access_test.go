package instance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/refcompiler"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/trap"
	"github.com/wasmcore/runtime/internal/tunables"
)

func memoryModule(t *testing.T, minimum uint32) *artifact.Artifact {
	t.Helper()
	storeSig := api.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}}
	loadSig := api.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	m := &artifact.Module{
		Name:               "memtest",
		FunctionSignatures: []api.FuncType{storeSig, loadSig},
		Memories:           []tunables.MemoryType{{Minimum: minimum}},
		Functions: []refcompiler.FuncBody{
			{
				Signature: storeSig,
				NumLocals: 2,
				Code: []refcompiler.Instr{
					{Op: refcompiler.OpLocalGet, Imm: 0},
					{Op: refcompiler.OpLocalGet, Imm: 1},
					{Op: refcompiler.OpI32Store},
				},
			},
			{
				Signature: loadSig,
				NumLocals: 1,
				Code: []refcompiler.Instr{
					{Op: refcompiler.OpLocalGet, Imm: 0},
					{Op: refcompiler.OpI32Load},
				},
			},
		},
		Exports: []artifact.Export{
			{Name: "store", Kind: api.ExternTypeFunc, Index: 0},
			{Name: "load", Kind: api.ExternTypeFunc, Index: 1},
			{Name: "mem", Kind: api.ExternTypeMemory, Index: 0},
		},
	}
	art, err := artifact.Compile(m, sigreg.New(), tunables.NewDefault())
	require.NoError(t, err)
	return art
}

func TestInstantiate_GuestMemoryStoreThenLoadRoundTrips(t *testing.T) {
	art := memoryModule(t, 2)
	in, err := Instantiate(art, NewImports())
	require.NoError(t, err)

	_, err = in.Call("store", []call.Value{call.I32(65536), call.I32(0xAB)})
	require.NoError(t, err)

	results, err := in.Call("load", []call.Value{call.I32(65536)})
	require.NoError(t, err)
	require.Equal(t, uint32(0xAB), call.AsI32(results[0]))
}

func TestInstantiate_GuestMemoryLoadAtEdgeOfBoundSucceeds(t *testing.T) {
	art := memoryModule(t, 1)
	in, err := Instantiate(art, NewImports())
	require.NoError(t, err)

	// A 4-byte load ending exactly at the memory's current bound is in
	// range and must not trap.
	_, err = in.Call("load", []call.Value{call.I32(65536 - 4)})
	require.NoError(t, err)
}

func TestInstantiate_GuestMemoryLoadPastBoundTrapsHeapOutOfBounds(t *testing.T) {
	art := memoryModule(t, 1)
	in, err := Instantiate(art, NewImports())
	require.NoError(t, err)

	// A 4-byte load one byte past the current bound must trap rather
	// than read into the guard region.
	_, err = in.Call("load", []call.Value{call.I32(65536 - 3)})
	require.Error(t, err)
	var tr *trap.Trap
	require.ErrorAs(t, err, &tr)
	require.Equal(t, api.TrapCodeHeapOutOfBounds, tr.Code)
}

func TestInstantiate_MemoryHandleFromOtherInstanceStorePanics(t *testing.T) {
	artA := memoryModule(t, 1)
	inA, err := Instantiate(artA, NewImports())
	require.NoError(t, err)

	artB := memoryModule(t, 1)
	inB, err := Instantiate(artB, NewImports())
	require.NoError(t, err)

	hA, ok := inA.MemoryHandle("mem")
	require.True(t, ok)

	require.Panics(t, func() {
		inB.Store.Memory(hA)
	})

	// inA's own Store still dereferences its own handle fine.
	require.NotPanics(t, func() {
		require.NotNil(t, inA.Store.Memory(hA))
	})
}
