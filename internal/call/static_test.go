package call

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
)

func TestNewStaticHostFunc_InfersPlainSignature(t *testing.T) {
	h, err := NewStaticHostFunc(func(a, b uint32) uint32 { return a + b })
	require.NoError(t, err)
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, h.Signature.Params)
	require.Equal(t, []api.ValueType{api.ValueTypeI32}, h.Signature.Results)

	out, err := h.Invoke(context.Background(), []Value{I32(2), I32(3)})
	require.NoError(t, err)
	require.Equal(t, uint32(5), AsI32(out[0]))
}

func TestNewStaticHostFunc_ContextFirstParamExcludedFromSignature(t *testing.T) {
	h, err := NewStaticHostFunc(func(ctx context.Context, x uint64) uint64 { return x * 2 })
	require.NoError(t, err)
	require.Equal(t, []api.ValueType{api.ValueTypeI64}, h.Signature.Params)

	out, err := h.Invoke(context.Background(), []Value{I64(21)})
	require.NoError(t, err)
	require.Equal(t, uint64(42), AsI64(out[0]))
}

func TestStaticHostFunc_TrailingErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	h, err := NewStaticHostFunc(func(x uint32) (uint32, error) {
		return 0, wantErr
	})
	require.NoError(t, err)

	_, callErr := h.Invoke(context.Background(), []Value{I32(1)})
	require.ErrorIs(t, callErr, wantErr)
}

func TestStaticHostFunc_FloatsRoundTripBitExact(t *testing.T) {
	h, err := NewStaticHostFunc(func(x float64) float64 { return x + 1 })
	require.NoError(t, err)

	out, err := h.Invoke(context.Background(), []Value{F64(1.5)})
	require.NoError(t, err)
	require.Equal(t, 2.5, AsF64(out[0]))
}

func TestStaticHostFunc_WrongArgCountErrors(t *testing.T) {
	h, err := NewStaticHostFunc(func(x uint32) uint32 { return x })
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), nil)
	require.Error(t, err)
}
