package codemem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocate_LayoutAndContents(t *testing.T) {
	bodies := [][]byte{{1, 2, 3}, {4, 5}}
	exec := [][]byte{{6, 7, 8, 9}}
	ro := [][]byte{{10}}

	r, err := Allocate(bodies, exec, ro)
	require.NoError(t, err)
	require.Len(t, r.Bodies, 2)
	require.Len(t, r.ExecSections, 1)
	require.Len(t, r.ROSections, 1)

	require.Equal(t, []byte{1, 2, 3}, r.Bodies[0].Bytes())
	require.Equal(t, []byte{4, 5}, r.Bodies[1].Bytes())
	require.Equal(t, []byte{6, 7, 8, 9}, r.ExecSections[0].Bytes())
	require.Equal(t, []byte{10}, r.ROSections[0].Bytes())

	// Second body is 16-byte aligned relative to the region start.
	require.Equal(t, 0, r.Bodies[0].Offset%alignment)
	require.Equal(t, 0, r.Bodies[1].Offset%alignment)

	require.NoError(t, r.Free())
}

func TestPublish_BeforeLinkFails(t *testing.T) {
	r, err := Allocate([][]byte{{0x90}}, nil, nil)
	require.NoError(t, err)
	defer r.Free()

	err = r.Publish()
	require.Error(t, err)
	require.False(t, r.Published())
}

func TestPublish_AfterLinkSucceeds(t *testing.T) {
	r, err := Allocate([][]byte{{0x90}}, nil, [][]byte{{0xAB}})
	require.NoError(t, err)
	defer r.Free()

	r.MarkLinked()
	require.NoError(t, r.Publish())
	require.True(t, r.Published())
	// Publish is idempotent.
	require.NoError(t, r.Publish())
}

func TestAllocate_EmptyRegion(t *testing.T) {
	r, err := Allocate(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, uintptr(0), r.Base())
	r.MarkLinked()
	require.NoError(t, r.Publish())
}

func TestList_FindResolvesAddressToRegion(t *testing.T) {
	var l List
	r1, err := Allocate([][]byte{make([]byte, 64)}, nil, nil)
	require.NoError(t, err)
	defer r1.Free()
	r2, err := Allocate([][]byte{make([]byte, 64)}, nil, nil)
	require.NoError(t, err)
	defer r2.Free()

	l.Add(r1)
	l.Add(r2)
	require.Equal(t, 2, l.Len())

	require.Same(t, r1, l.Find(r1.Base()))
	require.Same(t, r1, l.Find(r1.Base()+uintptr(r1.Size())-1))
	require.Same(t, r2, l.Find(r2.Base()))
	require.Nil(t, l.Find(0))
}

func TestRegisterUnwind_Idempotent(t *testing.T) {
	r, err := Allocate([][]byte{{0x90}}, nil, nil)
	require.NoError(t, err)
	defer r.Free()

	r.RegisterUnwind([]byte{1})
	r.RegisterUnwind([]byte{2})
	require.Equal(t, []byte{1}, r.ehFrame)
}
