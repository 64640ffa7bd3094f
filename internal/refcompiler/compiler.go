package refcompiler

import (
	"encoding/binary"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/memory"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/table"
	"github.com/wasmcore/runtime/internal/trap"
)

// ExecContext is the per-instance state a compiled Func needs to resolve
// calls and indirect calls: the instance's flattened function table (resolved
// imports followed by locals, module-index order) and its table/func
// pairing for indirect calls. Built once at instantiation by the instance
// package and threaded through every call the instance makes.
type ExecContext struct {
	Functions    []call.GuestFunc
	FunctionSigs []api.FuncType
	Signatures   *sigreg.Registry // the SharedSignatureIndex space call_indirect immediates index into.
	Table        *table.Table
	TableFuncs   []call.GuestFunc // parallel to Table's slots; only funcref slots are populated.
	Memory       *memory.Memory   // the instance's first Linear Memory, nil if it declares none.
	Frames       *trap.FrameStack
	Interrupt    *trap.Interrupter
}

// Func is a compiled function body: given the per-instance ExecContext and
// the shared argument buffer, run to completion (or call trap.Raise) and
// return the shared result buffer. This is refcompiler's realization of
// call.GuestFunc's calling convention.
type Func func(ctx *ExecContext, args []call.Value) []call.Value

// Compile translates fb's instruction stream into an executable Func. It
// never touches Code Memory or emits machine code — see the package doc for
// why — so, unlike a real ISA backend, Compile cannot fail: any structural
// problem with fb (a bad local index, a stack underflow) is a bug in
// whatever produced fb, not a condition this interpreter needs to report
// through an error return.
func Compile(fb FuncBody) Func {
	return func(ctx *ExecContext, args []call.Value) []call.Value {
		locals := make([]uint64, fb.NumLocals)
		for i, p := range fb.Signature.Params {
			locals[i] = call.DecodeType(p, args[i])
		}

		var stack []uint64
		pop := func() uint64 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			return v
		}
		push := func(v uint64) { stack = append(stack, v) }

		for ip := 0; ip < len(fb.Code); ip++ {
			instr := fb.Code[ip]
			switch instr.Op {
			case OpI32Const, OpI64Const:
				push(uint64(instr.Imm))
			case OpLocalGet:
				push(locals[instr.Imm])
			case OpLocalSet:
				locals[instr.Imm] = pop()
			case OpI32Add:
				b, a := pop(), pop()
				push(uint64(uint32(a) + uint32(b)))
			case OpI32Sub:
				b, a := pop(), pop()
				push(uint64(uint32(a) - uint32(b)))
			case OpI32Mul:
				b, a := pop(), pop()
				push(uint64(uint32(a) * uint32(b)))
			case OpI32DivU:
				b, a := pop(), pop()
				if uint32(b) == 0 {
					trap.Raise(api.TrapCodeIntegerDivisionByZero, ctx.Frames.Snapshot())
				}
				push(uint64(uint32(a) / uint32(b)))
			case OpI64Add:
				b, a := pop(), pop()
				push(a + b)
			case OpCall:
				idx := int(instr.Imm)
				sig := ctx.FunctionSigs[idx]
				callArgs := popArgs(&stack, sig.Params)
				results := call.Trampoline{Signature: sig, FuncIndex: idx}.Call(ctx.Functions[idx], callArgs, ctx.Frames, ctx.Interrupt)
				pushResults(&stack, sig.Results, results)
			case OpCallIndirect:
				tableIdx := uint32(pop())
				elem, code, ok := ctx.Table.IndirectCallCheck(tableIdx, sigreg.Index(instr.Imm))
				if !ok {
					trap.Raise(code, ctx.Frames.Snapshot())
				}
				fn := ctx.TableFuncs[tableIdx]
				_ = elem
				sig, _ := ctx.Signatures.Lookup(sigreg.Index(instr.Imm))
				callArgs := popArgs(&stack, sig.Params)
				results := call.Trampoline{Signature: sig, FuncName: "call_indirect"}.Call(fn, callArgs, ctx.Frames, ctx.Interrupt)
				pushResults(&stack, sig.Results, results)
			case OpI32Load:
				addr := uint64(uint32(pop())) + uint64(instr.Imm)
				bytes := ctx.Memory.Bytes()
				if addr+4 > uint64(len(bytes)) {
					trap.Raise(api.TrapCodeHeapOutOfBounds, ctx.Frames.Snapshot())
				}
				push(uint64(binary.LittleEndian.Uint32(bytes[addr : addr+4])))
			case OpI32Store:
				val := uint32(pop())
				addr := uint64(uint32(pop())) + uint64(instr.Imm)
				bytes := ctx.Memory.Bytes()
				if addr+4 > uint64(len(bytes)) {
					trap.Raise(api.TrapCodeHeapOutOfBounds, ctx.Frames.Snapshot())
				}
				binary.LittleEndian.PutUint32(bytes[addr:addr+4], val)
			case OpUnreachable:
				trap.Raise(api.TrapCodeUnreachableCodeReached, ctx.Frames.Snapshot())
			case OpReturn:
				ip = len(fb.Code)
			}
		}

		out := make([]call.Value, len(fb.Signature.Results))
		for i := len(fb.Signature.Results) - 1; i >= 0; i-- {
			out[i] = call.EncodeType(fb.Signature.Results[i], pop())
		}
		return out
	}
}

func popArgs(stack *[]uint64, params []api.ValueType) []call.Value {
	n := len(params)
	s := *stack
	args := make([]call.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = call.EncodeType(params[i], s[len(s)-1])
		s = s[:len(s)-1]
	}
	*stack = s
	return args
}

func pushResults(stack *[]uint64, results []api.ValueType, values []call.Value) {
	for i, r := range results {
		*stack = append(*stack, call.DecodeType(r, values[i]))
	}
}
