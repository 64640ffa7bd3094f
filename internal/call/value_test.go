package call

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_I32RoundTrip(t *testing.T) {
	require.Equal(t, uint32(42), AsI32(I32(42)))
}

func TestValue_I64RoundTrip(t *testing.T) {
	require.Equal(t, uint64(1)<<40, AsI64(I64(1<<40)))
}

func TestValue_F32RoundTrip(t *testing.T) {
	require.Equal(t, float32(3.5), AsF32(F32(3.5)))
}

func TestValue_F64RoundTrip(t *testing.T) {
	require.Equal(t, 2.25, AsF64(F64(2.25)))
}

func TestValue_FuncrefRoundTrip(t *testing.T) {
	b := byte(1)
	fn, vmctx := AsFuncref(Funcref(&b, 0xabc))
	require.Equal(t, uintptr(0xabc), vmctx)
	require.NotZero(t, fn)
}

func TestValue_FuncrefNilIsZero(t *testing.T) {
	fn, _ := AsFuncref(Funcref(nil, 0))
	require.Zero(t, fn)
}

func TestValue_ExternrefRoundTrip(t *testing.T) {
	require.Equal(t, uint64(777), AsExternref(Externref(777)))
}

func TestValue_V128RoundTrip(t *testing.T) {
	var b [16]byte
	for i := range b {
		b[i] = byte(i)
	}
	require.Equal(t, b, AsV128(V128(b)))
}
