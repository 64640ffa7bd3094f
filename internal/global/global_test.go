package global

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
)

func TestSet_ImmutableRejected(t *testing.T) {
	g := New(api.ValueTypeI32, false, 7, 0)
	err := g.Set(9, 0)
	require.ErrorIs(t, err, ErrImmutable)
	lo, _ := g.Get()
	require.Equal(t, uint64(7), lo)
}

func TestSet_MutableAccepted(t *testing.T) {
	g := New(api.ValueTypeI64, true, 1, 0)
	require.NoError(t, g.Set(2, 0))
	lo, _ := g.Get()
	require.Equal(t, uint64(2), lo)
}

func TestSetInit_BypassesMutabilityCheck(t *testing.T) {
	g := New(api.ValueTypeI32, false, 0, 0)
	g.SetInit(42, 0)
	lo, _ := g.Get()
	require.Equal(t, uint64(42), lo)
}
