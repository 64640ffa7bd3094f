package call

import (
	"context"
	"fmt"
	"reflect"

	"github.com/wasmcore/runtime/api"
)

// staticKind records how a Go function's parameter list is shaped, mirroring
// the teacher's FunctionKindGoNoContext / FunctionKindGoContext split
// (internal/wasm/gofunc_test.go): whether the first Go parameter is a
// context.Context that does not itself correspond to a Wasm value.
type staticKind int

const (
	staticKindPlain staticKind = iota
	staticKindContext
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()
var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// goTypeToValueType maps a reflect.Kind to the Wasm ValueType a Static ABI
// host function's parameter/result is marshaled as. Only the scalar numeric
// kinds spec.md's argument buffer natively represents are supported; richer
// shapes belong on the Dynamic ABI (dynamic.go).
func goTypeToValueType(t reflect.Type) (api.ValueType, error) {
	switch t.Kind() {
	case reflect.Uint32, reflect.Int32:
		return api.ValueTypeI32, nil
	case reflect.Uint64, reflect.Int64, reflect.Uint, reflect.Int:
		return api.ValueTypeI64, nil
	case reflect.Float32:
		return api.ValueTypeF32, nil
	case reflect.Float64:
		return api.ValueTypeF64, nil
	default:
		return 0, fmt.Errorf("call: unsupported Static ABI Go type %s", t)
	}
}

// StaticHostFunc is the Static ABI of spec.md §4.9: the host supplies a Go
// function with a concrete signature, and wasmcore infers its FuncType and
// generates the argument/result marshaling via reflection instead of
// hand-unpacking registers (there being no real register file in a Go
// host).
type StaticHostFunc struct {
	Signature api.FuncType
	fn        reflect.Value
	kind      staticKind
	hasErr    bool
	paramsIn  []reflect.Type // Go parameter types, excluding a leading context.Context.
	resultsT  []reflect.Type // Go result types, excluding a trailing error.
}

// NewStaticHostFunc builds a StaticHostFunc from fn, which must be a Go
// function optionally taking a leading context.Context, taking zero or more
// scalar numeric parameters, and returning zero or more scalar numeric
// results optionally followed by a trailing error.
func NewStaticHostFunc(fn any) (*StaticHostFunc, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("call: NewStaticHostFunc requires a function, got %T", fn)
	}

	h := &StaticHostFunc{fn: v}

	numIn := t.NumIn()
	start := 0
	if numIn > 0 && t.In(0).Implements(contextType) {
		h.kind = staticKindContext
		start = 1
	}
	for i := start; i < numIn; i++ {
		pt := t.In(i)
		vt, err := goTypeToValueType(pt)
		if err != nil {
			return nil, err
		}
		h.Signature.Params = append(h.Signature.Params, vt)
		h.paramsIn = append(h.paramsIn, pt)
	}

	numOut := t.NumOut()
	end := numOut
	if numOut > 0 && t.Out(numOut-1) == errorType {
		h.hasErr = true
		end = numOut - 1
	}
	for i := 0; i < end; i++ {
		rt := t.Out(i)
		vt, err := goTypeToValueType(rt)
		if err != nil {
			return nil, err
		}
		h.Signature.Results = append(h.Signature.Results, vt)
		h.resultsT = append(h.resultsT, rt)
	}
	return h, nil
}

// Invoke marshals args (spec.md's shared 16-byte-per-slot buffer) into the
// underlying Go function's concrete parameter types, calls it, and marshals
// the results back.
func (h *StaticHostFunc) Invoke(ctx context.Context, args []Value) ([]Value, error) {
	if len(args) != len(h.paramsIn) {
		return nil, fmt.Errorf("call: static host func expects %d params, got %d", len(h.paramsIn), len(args))
	}

	in := make([]reflect.Value, 0, len(h.paramsIn)+1)
	if h.kind == staticKindContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, pt := range h.paramsIn {
		in = append(in, decodeParam(h.Signature.Params[i], args[i], pt))
	}

	out := h.fn.Call(in)

	if h.hasErr {
		if errv := out[len(out)-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		out = out[:len(out)-1]
	}

	results := make([]Value, len(out))
	for i, rv := range out {
		results[i] = encodeResult(h.Signature.Results[i], rv)
	}
	return results, nil
}

// decodeParam unpacks a Value into a reflect.Value of Go type pt, bit-exact
// for floats (spec.md §4.9: "i32/i64/f32/f64 copy bitwise").
func decodeParam(vt api.ValueType, v Value, pt reflect.Type) reflect.Value {
	switch vt {
	case api.ValueTypeF32:
		return reflect.ValueOf(AsF32(v)).Convert(pt)
	case api.ValueTypeF64:
		return reflect.ValueOf(AsF64(v)).Convert(pt)
	case api.ValueTypeI32:
		return reflect.ValueOf(AsI32(v)).Convert(pt)
	default:
		return reflect.ValueOf(AsI64(v)).Convert(pt)
	}
}

// encodeResult packs a Go function's return value into a Value, bit-exact
// for floats.
func encodeResult(vt api.ValueType, rv reflect.Value) Value {
	switch vt {
	case api.ValueTypeF32:
		return F32(float32(rv.Float()))
	case api.ValueTypeF64:
		return F64(rv.Float())
	case api.ValueTypeI32:
		if rv.Kind() == reflect.Int32 {
			return I32(uint32(rv.Int()))
		}
		return I32(uint32(rv.Uint()))
	default:
		if rv.CanInt() {
			return I64(uint64(rv.Int()))
		}
		return I64(rv.Uint())
	}
}
