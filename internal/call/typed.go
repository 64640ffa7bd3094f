package call

import "context"

// TypedFunction is the statically-typed call wrapper SPEC_FULL.md adds,
// grounded on wasmer's lib/api/src/native.rs TypedFunction<Args, Rets>
// (_examples/original_source): a handle to an already-resolved export that
// lets a host caller invoke it with concrete Go argument/result types
// instead of building a []Value buffer by hand each time.
//
// Go has no const-generic arity, so unlike native.rs's macro-generated
// impls for every tuple length, TypedFunction takes explicit
// encode/decode functions supplied once at construction (typically by a
// generated or hand-written binding layer) rather than deriving them from
// P and R's shape.
type TypedFunction[P any, R any] struct {
	encode func(P) []Value
	decode func([]Value) (R, error)
	invoke func(ctx context.Context, args []Value) ([]Value, error)
}

// NewTypedFunction builds a TypedFunction around invoke (typically a
// Trampoline.Call wrapped to match this signature, or a DynamicHostFunc's
// Invoke), using encode/decode to cross between P/R and the shared Value
// buffer.
func NewTypedFunction[P any, R any](
	invoke func(ctx context.Context, args []Value) ([]Value, error),
	encode func(P) []Value,
	decode func([]Value) (R, error),
) TypedFunction[P, R] {
	return TypedFunction[P, R]{encode: encode, decode: decode, invoke: invoke}
}

// Call encodes params, invokes the underlying function, and decodes its
// results.
func (t TypedFunction[P, R]) Call(ctx context.Context, params P) (R, error) {
	args := t.encode(params)
	results, err := t.invoke(ctx, args)
	if err != nil {
		var zero R
		return zero, err
	}
	return t.decode(results)
}
