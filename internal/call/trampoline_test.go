package call

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/trap"
)

func TestTrampoline_CallPushesAndPopsFrame(t *testing.T) {
	var frames trap.FrameStack
	tr := Trampoline{Signature: api.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}, FuncIndex: 5}

	var depthDuringCall int
	fn := GuestFunc(func(args []Value) []Value {
		depthDuringCall = frames.Depth()
		return []Value{I32(AsI32(args[0]) + 1)}
	})

	out := tr.Call(fn, []Value{I32(41)}, &frames, nil)
	require.Equal(t, uint32(42), AsI32(out[0]))
	require.Equal(t, 1, depthDuringCall)
	require.Equal(t, 0, frames.Depth())
}

func TestTrampoline_WrongArityPanics(t *testing.T) {
	var frames trap.FrameStack
	tr := Trampoline{Signature: api.FuncType{Params: []api.ValueType{api.ValueTypeI32}}}
	fn := GuestFunc(func(args []Value) []Value { return nil })

	require.Panics(t, func() { tr.Call(fn, nil, &frames, nil) })
}

func TestTrampoline_InterruptFires(t *testing.T) {
	var frames trap.FrameStack
	var interrupt trap.Interrupter
	interrupt.Request()

	tr := Trampoline{}
	fn := GuestFunc(func(args []Value) []Value { return nil })

	err := trap.CatchTraps(func() {
		tr.Call(fn, nil, &frames, &interrupt)
	})
	require.Error(t, err)
}
