package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/internal/global"
)

func TestAllocFunction_RoundTrip(t *testing.T) {
	s := New()
	h := s.AllocFunction(&FunctionObject{Signature: 1})
	got := s.Function(h)
	require.Equal(t, uintptr(1), got.Signature)
	require.Equal(t, 1, s.FunctionCount())
}

func TestHandle_CrossStorePanics(t *testing.T) {
	s1 := New()
	s2 := New()
	h := s1.AllocFunction(&FunctionObject{})

	require.Panics(t, func() { s2.Function(h) })
}

func TestAllocGlobal_RoundTrip(t *testing.T) {
	s := New()
	g := global.New(0x7f, true, 5, 0)
	h := s.AllocGlobal(g)
	require.Same(t, g, s.Global(h))
}

func TestTwoStores_HaveDistinctIds(t *testing.T) {
	s1 := New()
	s2 := New()
	require.NotEqual(t, s1.Id(), s2.Id())
}

func TestAllocHostState_SetHostStateUpdatesInPlace(t *testing.T) {
	s := New()
	h := s.AllocHostState(1)
	require.Equal(t, 1, s.HostState(h))

	s.SetHostState(h, 2)
	require.Equal(t, 2, s.HostState(h))
}
