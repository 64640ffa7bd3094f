package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/refcompiler"
)

var addSig = api.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}

func addModule() *artifact.Module {
	return &artifact.Module{
		Name:               "add",
		FunctionSignatures: []api.FuncType{addSig},
		Functions: []refcompiler.FuncBody{{
			Signature: addSig,
			NumLocals: 2,
			Code: []refcompiler.Instr{
				{Op: refcompiler.OpLocalGet, Imm: 0},
				{Op: refcompiler.OpLocalGet, Imm: 1},
				{Op: refcompiler.OpI32Add},
			},
		}},
		Exports: []artifact.Export{{Name: "add", Kind: api.ExternTypeFunc, Index: 0}},
	}
}

// fakeDecoder treats its input bytes verbatim as a module name and always
// decodes to the same tiny add module, standing in for the external binary
// parser spec.md §6 places outside this core.
type fakeDecoder struct {
	fail bool
}

func (d *fakeDecoder) Decode(wasmBytes []byte) (*artifact.Module, error) {
	if d.fail {
		return nil, errors.New("fakeDecoder: malformed")
	}
	m := addModule()
	m.Name = string(wasmBytes)
	return m, nil
}

func TestHeadless_ValidateAndCompileFail(t *testing.T) {
	e := Headless()
	require.ErrorIs(t, e.Validate([]byte("anything")), ErrHeadless)
	_, err := e.Compile([]byte("anything"))
	require.ErrorIs(t, err, ErrHeadless)
}

func TestCompile_ProducesArtifactAndTracksCodeMemory(t *testing.T) {
	e := New(NewConfig().WithDecoder(&fakeDecoder{}))
	require.Empty(t, e.CodeMemoryRegions())

	a, err := e.Compile([]byte("mod-a"))
	require.NoError(t, err)
	require.Equal(t, "mod-a", a.Name())
	require.Len(t, e.CodeMemoryRegions(), 1)
}

func TestCompile_CacheHitReturnsSameArtifact(t *testing.T) {
	e := New(NewConfig().WithDecoder(&fakeDecoder{}).WithCacheSize(8))
	a1, err := e.Compile([]byte("mod-a"))
	require.NoError(t, err)
	a2, err := e.Compile([]byte("mod-a"))
	require.NoError(t, err)
	require.Same(t, a1, a2)
	require.Len(t, e.CodeMemoryRegions(), 1, "a cache hit must not allocate a second Code Memory region")
}

func TestCompile_DecodeErrorPropagates(t *testing.T) {
	e := New(NewConfig().WithDecoder(&fakeDecoder{fail: true}))
	_, err := e.Compile([]byte("mod-a"))
	require.Error(t, err)
}

func TestDeserialize_WorksOnHeadlessEngine(t *testing.T) {
	compiler := New(NewConfig().WithDecoder(&fakeDecoder{}))
	a, err := compiler.Compile([]byte("mod-a"))
	require.NoError(t, err)
	blob, err := a.Serialize()
	require.NoError(t, err)

	headless := Headless()
	a2, err := headless.Deserialize(blob)
	require.NoError(t, err)
	require.Equal(t, a.Exports(), a2.Exports())
}

func TestDeserializeFromFile_ReadsAndDeserializes(t *testing.T) {
	compiler := New(NewConfig().WithDecoder(&fakeDecoder{}))
	a, err := compiler.Compile([]byte("mod-a"))
	require.NoError(t, err)
	blob, err := a.Serialize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifact.wcore")
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	e := Headless()
	a2, err := e.DeserializeFromFile(path)
	require.NoError(t, err)
	require.Equal(t, a.Exports(), a2.Exports())
}

func TestEngine_CloneSharesInnerState(t *testing.T) {
	e := New(NewConfig().WithDecoder(&fakeDecoder{}))
	clone := *e
	_, err := e.Compile([]byte("mod-a"))
	require.NoError(t, err)
	require.Len(t, clone.CodeMemoryRegions(), 1, "a copy of Engine must observe state mutated through the original")
	require.True(t, e.inner == clone.inner)
}

func TestEngine_FeaturesAndTarget(t *testing.T) {
	e := New(NewConfig().WithFeatures(api.CoreFeatureMutableGlobal).WithTarget("interpreter/test"))
	require.Equal(t, api.CoreFeatureMutableGlobal, e.Features())
	require.Equal(t, "interpreter/test", e.Target())
}
