// Package call implements spec.md §4.9: the shared argument/result buffer
// convention and the two host-function ABIs (Static and Dynamic) that move
// values between guest and host.
//
// Grounded on the teacher's internal/wasm host-function plumbing
// (gofunc_test.go / host_test.go describe reflect-driven Go-function
// signature inference — FunctionKindGoNoContext vs FunctionKindGoContext,
// optional trailing error result) for the Static ABI, and on wasmer's
// lib/api/src/native.rs TypedFunction<Args, Rets> (_examples/original_source)
// for the generic typed-call wrapper.
package call

import (
	"encoding/binary"
	"math"

	"github.com/wasmcore/runtime/api"
)

// Value is one slot of the shared argument/result buffer spec.md §4.9
// describes: every Wasm value, regardless of type, occupies 16 bytes so a
// call site can index the buffer without per-type stride arithmetic.
type Value [16]byte

// I32 packs a 32-bit integer, bitwise, into the low 4 bytes.
func I32(v uint32) Value {
	var val Value
	binary.LittleEndian.PutUint32(val[:4], v)
	return val
}

// AsI32 unpacks a Value written by I32.
func AsI32(v Value) uint32 { return binary.LittleEndian.Uint32(v[:4]) }

// I64 packs a 64-bit integer, bitwise, into the low 8 bytes.
func I64(v uint64) Value {
	var val Value
	binary.LittleEndian.PutUint64(val[:8], v)
	return val
}

// AsI64 unpacks a Value written by I64.
func AsI64(v Value) uint64 { return binary.LittleEndian.Uint64(v[:8]) }

// F32 packs a 32-bit float bitwise (IEEE 754 bit pattern, not a conversion).
func F32(v float32) Value { return I32(math.Float32bits(v)) }

// AsF32 unpacks a Value written by F32.
func AsF32(v Value) float32 { return math.Float32frombits(AsI32(v)) }

// F64 packs a 64-bit float bitwise.
func F64(v float64) Value { return I64(math.Float64bits(v)) }

// AsF64 unpacks a Value written by F64.
func AsF64(v Value) float64 { return math.Float64frombits(AsI64(v)) }

// Funcref packs a function pointer and its owning VMContext pointer
// (spec.md §4.9: "funcref packs pointer+vmctx").
func Funcref(fn *byte, vmctx uintptr) Value {
	var val Value
	binary.LittleEndian.PutUint64(val[:8], uint64(uintptr(ptrToUintptr(fn))))
	binary.LittleEndian.PutUint64(val[8:16], uint64(vmctx))
	return val
}

// AsFuncref unpacks a Value written by Funcref. fn is zero iff the packed
// pointer was nil (the null funcref).
func AsFuncref(v Value) (fn uintptr, vmctx uintptr) {
	return uintptr(binary.LittleEndian.Uint64(v[:8])), uintptr(binary.LittleEndian.Uint64(v[8:16]))
}

// Externref packs an opaque 64-bit host handle (spec.md §4.9: "externref is
// an opaque 64-bit handle").
func Externref(handle uint64) Value { return I64(handle) }

// AsExternref unpacks a Value written by Externref.
func AsExternref(v Value) uint64 { return AsI64(v) }

// V128 packs a 16-byte SIMD vector little-endian, the Value's full width.
func V128(b [16]byte) Value { return Value(b) }

// AsV128 unpacks a Value written by V128.
func AsV128(v Value) [16]byte { return [16]byte(v) }

func ptrToUintptr(p *byte) uintptr {
	if p == nil {
		return 0
	}
	return uintptrOf(p)
}

// EncodeType packs a raw scalar bit pattern into a Value according to t,
// used by internal/refcompiler to move operands in and out of the shared
// Value buffer.
func EncodeType(t api.ValueType, bits uint64) Value {
	switch t {
	case api.ValueTypeI32, api.ValueTypeF32:
		return I32(uint32(bits))
	default:
		return I64(bits)
	}
}

// DecodeType unpacks a Value back to a raw bit pattern according to t.
func DecodeType(t api.ValueType, v Value) uint64 {
	switch t {
	case api.ValueTypeI32, api.ValueTypeF32:
		return uint64(AsI32(v))
	default:
		return AsI64(v)
	}
}
