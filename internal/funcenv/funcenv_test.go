package funcenv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/internal/store"
)

type counterState struct {
	calls int
}

func TestNew_AsRef_RoundTrip(t *testing.T) {
	s := store.New()
	env := New(s, counterState{calls: 3})

	require.Equal(t, counterState{calls: 3}, env.AsRef(s))
}

func TestAsMut_SetData_WritesBack(t *testing.T) {
	s := store.New()
	env := New(s, counterState{})

	m := env.AsMut(s)
	st := m.Data()
	st.calls++
	m.SetData(st)

	require.Equal(t, counterState{calls: 1}, env.AsRef(s))
}

func TestAsMut_Store_ReturnsSameStore(t *testing.T) {
	s := store.New()
	env := New(s, 0)

	m := env.AsMut(s)
	require.Same(t, s, m.Store())
}

func TestFunctionEnv_IndependentSlots(t *testing.T) {
	s := store.New()
	a := New(s, "a")
	b := New(s, "b")

	require.Equal(t, "a", a.AsRef(s))
	require.Equal(t, "b", b.AsRef(s))

	a.AsMut(s).SetData("a2")
	require.Equal(t, "a2", a.AsRef(s))
	require.Equal(t, "b", b.AsRef(s))
}

func TestFunctionEnv_DistinctStores(t *testing.T) {
	s1 := store.New()
	s2 := store.New()

	e1 := New(s1, 1)
	e2 := New(s2, 2)

	require.Equal(t, 1, e1.AsRef(s1))
	require.Equal(t, 2, e2.AsRef(s2))
	require.Panics(t, func() { e1.AsRef(s2) })
}
