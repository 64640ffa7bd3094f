// Package refcompiler implements the one Compiler backend wasmcore ships: a
// tree-walking interpreter over a small typed instruction set, in the shape
// spec.md §6 describes as an external collaborator ("compiler back-ends")
// rather than core functionality. Real ISA codegen (x86-64/ARM64 encoding,
// register allocation) is explicitly out of scope for the core per spec.md
// §1, so this backend never emits machine code: it compiles straight to a
// Go closure, the same choice the teacher's own interpreter engine makes
// (internal/engine/interpreter/interpreter.go walks an Operation slice
// instead of executing compiled native code, as opposed to
// internal/engine/compiler, which does emit real machine code and is the
// engine wasmcore deliberately does not reproduce).
//
// Because this package does not consume real Wasm bytecode (the
// binary parser is, per spec.md §6, a separate external collaborator this
// core only defines the interface for), its input IR is a small typed
// instruction list already shaped like what such a parser would hand the
// core: constants, local access, arithmetic, calls, linear memory access,
// and explicit traps.
package refcompiler

import "github.com/wasmcore/runtime/api"

// Op is one instruction in a compiled function's body.
type Op int

const (
	OpI32Const Op = iota
	OpI64Const
	OpLocalGet
	OpLocalSet
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivU // traps IntegerDivisionByZero on a zero divisor.
	OpI64Add
	OpCall       // calls FuncIndex (Imm) within the same artifact.
	OpCallIndirect
	OpI32Load  // pops a base address, reads 4 bytes at base+Imm from the instance's first memory.
	OpI32Store // pops a value then a base address, writes 4 bytes at base+Imm.
	OpUnreachable
	OpReturn
)

// Instr is one IR instruction: an opcode plus its immediate operand, where
// applicable (a constant value, a local index, or a called function index).
type Instr struct {
	Op  Op
	Imm int64
}

// FuncBody is the input to Compile: a function's locals layout and its
// instruction stream, ending in an implicit OpReturn if none is present.
type FuncBody struct {
	Signature  api.FuncType
	NumLocals  int // includes parameters, which occupy locals [0, len(Params)).
	Code       []Instr
}
