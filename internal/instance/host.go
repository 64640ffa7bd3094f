package instance

import (
	"context"

	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/trap"
)

// AdaptHostFunc wraps a context-and-error-returning host function invoker —
// the shape call.StaticHostFunc and call.DynamicHostFunc both expose via
// Invoke — into a call.GuestFunc, the no-error, no-context calling
// convention Imports.DefineFunc and an Instance's function space expect.
// A non-nil error raises a trap.HostError rather than a bare panic, so it
// unwinds through the same catch_traps boundary a guest-originated trap
// does and reaches the caller as a RuntimeError wrapping the host's error
// value (spec.md §7), instead of crashing the calling goroutine.
func AdaptHostFunc(ctx context.Context, invoke func(context.Context, []call.Value) ([]call.Value, error)) call.GuestFunc {
	return func(args []call.Value) []call.Value {
		results, err := invoke(ctx, args)
		if err != nil {
			trap.RaiseHostError(err, nil)
		}
		return results
	}
}
