package call

import (
	"fmt"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/trap"
)

// GuestFunc is the calling convention wasmcore's reference compiler backend
// (internal/refcompiler) produces for a compiled Wasm function body: given
// the shared argument buffer, run to completion or call trap.Raise, and
// return the shared result buffer. It stands in for "jump to the body
// pointer with args in ABI-specified locations" (spec.md §4.9) in a host
// where the body is a Go closure rather than raw machine code — see
// internal/refcompiler's package doc for why.
type GuestFunc func(args []Value) []Value

// Trampoline is the artifact's per-signature call trampoline (spec.md §4.9):
// it validates the argument buffer matches the expected arity before
// jumping into a GuestFunc, and tracks the call in the FrameStack so a trap
// raised inside carries an accurate backtrace.
type Trampoline struct {
	Signature api.FuncType
	FuncIndex int
	FuncName  string
}

// Call invokes fn with args through this trampoline, pushing/popping a
// trap.Frame around the call and checking the cooperative stack-depth and
// interrupt safepoints spec.md §4.8 describes.
func (t Trampoline) Call(fn GuestFunc, args []Value, frames *trap.FrameStack, interrupt *trap.Interrupter) []Value {
	if len(args) != len(t.Signature.Params) {
		panic(fmt.Sprintf("call: trampoline for %s expects %d args, got %d", t.FuncName, len(t.Signature.Params), len(args)))
	}

	trap.CheckDepth(frames)
	if interrupt != nil {
		interrupt.CheckSafepoint(frames)
	}

	frames.Push(trap.Frame{FuncIndex: t.FuncIndex, FuncName: t.FuncName})
	defer frames.Pop()

	return fn(args)
}
