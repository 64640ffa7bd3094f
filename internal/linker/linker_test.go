package linker

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/internal/codemem"
)

func allocTwo(t *testing.T) (*codemem.Region, []codemem.Slice) {
	t.Helper()
	body0 := make([]byte, 32)
	body1 := make([]byte, 32)
	r, err := codemem.Allocate([][]byte{body0, body1}, nil, nil)
	require.NoError(t, err)
	return r, r.Bodies
}

func TestPatch_PCRelCall(t *testing.T) {
	r, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: PCRelCall, Offset: 4, Target: TargetFunction, FuncIndex: 1}},
		nil,
	}
	funcBases := []uintptr{bodies[0].Addr(), bodies[1].Addr()}

	require.NoError(t, Patch(bodies, relocs, funcBases, nil))

	buf := bodies[0].Bytes()
	disp := int32(binary.LittleEndian.Uint32(buf[4:8]))
	site := bodies[0].Addr() + 4
	wantTarget := int64(site) + 4 + int64(disp)
	require.Equal(t, int64(bodies[1].Addr()), wantTarget)

	r.MarkLinked()
	require.NoError(t, r.Publish())
}

func TestPatch_AbsPtr64(t *testing.T) {
	_, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: AbsPtr64, Offset: 0, Target: TargetFunction, FuncIndex: 1}},
		nil,
	}
	funcBases := []uintptr{bodies[0].Addr(), bodies[1].Addr()}

	require.NoError(t, Patch(bodies, relocs, funcBases, nil))
	got := binary.LittleEndian.Uint64(bodies[0].Bytes()[0:8])
	require.Equal(t, uint64(bodies[1].Addr()), got)
}

func TestPatch_LibcallResolvesFromTable(t *testing.T) {
	_, bodies := allocTwo(t)
	var target uintptr = 0xdeadbeef
	relocs := [][]Relocation{
		{{Kind: AbsPtr64, Offset: 8, Target: TargetLibcall, Libcall: "memory_grow"}},
		nil,
	}

	require.NoError(t, Patch(bodies, relocs, nil, map[string]uintptr{"memory_grow": target}))
	got := binary.LittleEndian.Uint64(bodies[0].Bytes()[8:16])
	require.Equal(t, uint64(target), got)
}

func TestPatch_UnresolvedLibcallErrors(t *testing.T) {
	_, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: AbsPtr64, Offset: 0, Target: TargetLibcall, Libcall: "missing"}},
		nil,
	}
	err := Patch(bodies, relocs, nil, map[string]uintptr{})
	require.Error(t, err)
}

func TestPatch_UnknownKindIsFatal(t *testing.T) {
	_, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: Kind(99), Offset: 0, Target: TargetFunction, FuncIndex: 0}},
		nil,
	}
	funcBases := []uintptr{bodies[0].Addr(), bodies[1].Addr()}
	err := Patch(bodies, relocs, funcBases, nil)
	require.Error(t, err)
	var unk ErrUnknownRelocationKind
	require.ErrorAs(t, err, &unk)
}

func TestPatch_OutOfBoundsOffsetErrors(t *testing.T) {
	_, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: AbsPtr64, Offset: 30, Target: TargetFunction, FuncIndex: 0}},
		nil,
	}
	funcBases := []uintptr{bodies[0].Addr(), bodies[1].Addr()}
	require.Error(t, Patch(bodies, relocs, funcBases, nil))
}

func TestPatch_Arm64AdrpAdd(t *testing.T) {
	_, bodies := allocTwo(t)
	relocs := [][]Relocation{
		{{Kind: Arm64AdrpAdd, Offset: 0, Target: TargetFunction, FuncIndex: 1}},
		nil,
	}
	funcBases := []uintptr{bodies[0].Addr(), bodies[1].Addr()}
	require.NoError(t, Patch(bodies, relocs, funcBases, nil))

	buf := bodies[0].Bytes()
	pageOffset := binary.LittleEndian.Uint32(buf[4:8])
	require.Equal(t, uint32(bodies[1].Addr())&0xfff, pageOffset)
}
