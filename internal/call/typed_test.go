package call

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedFunction_EncodeInvokeDecode(t *testing.T) {
	invoke := func(ctx context.Context, args []Value) ([]Value, error) {
		return []Value{I32(AsI32(args[0]) * 2)}, nil
	}
	tf := NewTypedFunction[uint32, uint32](
		invoke,
		func(p uint32) []Value { return []Value{I32(p)} },
		func(vs []Value) (uint32, error) { return AsI32(vs[0]), nil },
	)

	got, err := tf.Call(context.Background(), 21)
	require.NoError(t, err)
	require.Equal(t, uint32(42), got)
}

func TestTypedFunction_ErrorPropagatesAndZeroesResult(t *testing.T) {
	wantErr := errorSentinel{}
	invoke := func(ctx context.Context, args []Value) ([]Value, error) {
		return nil, wantErr
	}
	tf := NewTypedFunction[uint32, uint32](
		invoke,
		func(p uint32) []Value { return []Value{I32(p)} },
		func(vs []Value) (uint32, error) { return AsI32(vs[0]), nil },
	)

	got, err := tf.Call(context.Background(), 1)
	require.ErrorIs(t, err, wantErr)
	require.Zero(t, got)
}

type errorSentinel struct{}

func (errorSentinel) Error() string { return "typed function error" }
