// Package api includes constants and interfaces shared by host code and the
// wasmcore runtime internals. It is deliberately small and free of engine
// detail so host embedders can depend on it without pulling in the store,
// artifact, or trap machinery packages.
package api

import "fmt"

// ValueType is a Wasm value type used in a FuncType's Params/Results.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeV128      ValueType = 0x7b
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the Wasm text-format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// ValueTypeSize returns the number of bytes t occupies in a wire-format
// value buffer. v128 is the largest at 16 bytes; everything else is padded
// up to that width inside the shared [i128; N] argument/result buffer
// described in spec.md §4.9.
func ValueTypeSize(t ValueType) int {
	switch t {
	case ValueTypeI32, ValueTypeF32:
		return 4
	case ValueTypeI64, ValueTypeF64, ValueTypeFuncref, ValueTypeExternref:
		return 8
	case ValueTypeV128:
		return 16
	}
	return 0
}

// FuncType is a function signature: an ordered list of parameter types and
// an ordered list of result types. Two FuncTypes are structurally equal iff
// their Params and Results slices are element-wise equal.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether f and o describe the same signature.
func (f FuncType) Equal(o FuncType) bool {
	return valueTypesEqual(f.Params, o.Params) && valueTypesEqual(f.Results, o.Results)
}

func valueTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders f in a form like "(i32,i64)->(f64)", used in error
// messages and debug logging.
func (f FuncType) String() string {
	return fmt.Sprintf("(%s)->(%s)", typeNames(f.Params), typeNames(f.Results))
}

func typeNames(ts []ValueType) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ","
		}
		s += ValueTypeName(t)
	}
	return s
}

// ExternType classifies an import or export.
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
	ExternTypeTag    ExternType = 0x04
)

// ExternTypeName returns the Wasm text-format field name for et.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	case ExternTypeTag:
		return "tag"
	}
	return fmt.Sprintf("%#x", et)
}
