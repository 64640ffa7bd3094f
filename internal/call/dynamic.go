package call

import (
	"context"

	"github.com/wasmcore/runtime/api"
)

// DynamicFunc is spec.md §4.9's Dynamic ABI: the host takes the Value slice
// directly and returns a Value slice or an error, with no reflection-driven
// marshaling. Used when a host function's shape isn't a fixed,
// reflectable Go signature (variable arity, or values that don't map onto
// a single Go scalar type).
type DynamicFunc func(ctx context.Context, args []Value) ([]Value, error)

// DynamicHostFunc pairs a DynamicFunc with the FuncType it implements, since
// (unlike the Static ABI) nothing about the Go function value lets wasmcore
// infer the signature.
type DynamicHostFunc struct {
	Signature api.FuncType
	fn        DynamicFunc
}

// NewDynamicHostFunc builds a DynamicHostFunc.
func NewDynamicHostFunc(sig api.FuncType, fn DynamicFunc) *DynamicHostFunc {
	return &DynamicHostFunc{Signature: sig, fn: fn}
}

// Invoke calls the underlying DynamicFunc.
func (h *DynamicHostFunc) Invoke(ctx context.Context, args []Value) ([]Value, error) {
	return h.fn(ctx, args)
}
