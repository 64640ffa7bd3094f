package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/refcompiler"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/tunables"
)

func addModule() *Module {
	sig := api.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	return &Module{
		Name:               "add",
		FunctionSignatures: []api.FuncType{sig},
		Functions: []refcompiler.FuncBody{{
			Signature: sig,
			NumLocals: 2,
			Code: []refcompiler.Instr{
				{Op: refcompiler.OpLocalGet, Imm: 0},
				{Op: refcompiler.OpLocalGet, Imm: 1},
				{Op: refcompiler.OpI32Add},
			},
		}},
		Exports: []Export{{Name: "add", Kind: api.ExternTypeFunc, Index: 0}},
	}
}

func TestCompile_PublishesCodeMemoryAndTrampolines(t *testing.T) {
	sigs := sigreg.New()
	art, err := Compile(addModule(), sigs, tunables.NewDefault())
	require.NoError(t, err)
	require.Len(t, art.Functions, 1)
	require.True(t, art.Region().Published())
	require.Len(t, art.CallTrampolines, 1)
}

func TestSerializeDeserialize_RoundTripsProducesIdenticalExports(t *testing.T) {
	sigs1 := sigreg.New()
	art1, err := Compile(addModule(), sigs1, tunables.NewDefault())
	require.NoError(t, err)

	blob, err := art1.Serialize()
	require.NoError(t, err)
	require.Equal(t, magic[:], blob[:8])
	require.Zero(t, len(blob)%4096)

	sigs2 := sigreg.New()
	art2, err := Deserialize(blob, sigs2, tunables.NewDefault())
	require.NoError(t, err)
	require.Equal(t, art1.Exports(), art2.Exports())
	require.Equal(t, art1.Module.FunctionSignatures, art2.Module.FunctionSignatures)
}

func TestDeserialize_BadMagicIsIncompatible(t *testing.T) {
	sigs := sigreg.New()
	_, err := Deserialize([]byte("not a wasmcore artifact at all......."), sigs, tunables.NewDefault())
	require.ErrorIs(t, err, ErrIncompatible)
}

func TestSetName_OverridesMetadataOnly(t *testing.T) {
	sigs := sigreg.New()
	art, err := Compile(addModule(), sigs, tunables.NewDefault())
	require.NoError(t, err)
	require.Equal(t, "add", art.Name())
	art.SetName("renamed")
	require.Equal(t, "renamed", art.Name())
}
