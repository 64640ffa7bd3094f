// Package trap implements the Trap Machinery of spec.md §4.8 in terms Go
// actually gives a program: panic/recover instead of a process-wide
// sigaction handler and siglongjmp. A Go program cannot safely intercept
// SIGSEGV/SIGBUS itself (doing so needs assembly or cgo and fights the Go
// runtime's own signal handling); the teacher's own compiler engine
// (internal/engine/compiler/engine.go) reaches the same conclusion and
// converts every guest-visible failure into a Go panic that a single
// deferred recover turns back into a plain error, rather than installing a
// raw handler. wasmcore follows that precedent: CatchTraps is the
// catch_traps boundary, Raise is what a bounds check or compiled trap
// instruction calls instead of faulting, and a per-call FrameStack stands
// in for the native backtrace capture the signal handler would otherwise
// do.
package trap

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/wasmcore/runtime/api"
)

// Frame is one entry of a captured backtrace: which compiled function was
// executing when the trap (or interrupt) fired.
type Frame struct {
	FuncIndex int
	FuncName  string
}

func (f Frame) String() string {
	if f.FuncName != "" {
		return f.FuncName
	}
	return fmt.Sprintf("func[%d]", f.FuncIndex)
}

// Trap is the error a guest call terminates with when it hits a TrapCode
// (spec.md §3/§7's RuntimeError wrapping a TrapCode). It implements `error`
// so it composes with the rest of Go's error handling (errors.As, %w).
type Trap struct {
	Code   api.TrapCode
	Frames []Frame
}

func (t *Trap) Error() string {
	names := make([]string, len(t.Frames))
	for i, f := range t.Frames {
		names[i] = f.String()
	}
	if len(names) == 0 {
		return fmt.Sprintf("wasm trap: %s", t.Code)
	}
	return fmt.Sprintf("wasm trap: %s\n\t%s", t.Code, strings.Join(names, "\n\t"))
}

// HostError is the RuntimeError a guest call terminates with when a host
// import it invoked returned a non-nil error (spec.md §7: "a user error,
// surfaced as RuntimeError wrapping the value"). Unlike Trap, it carries no
// TrapCode — it originates outside the guest's own execution — but it
// unwinds through the same catch_traps boundary and implements Unwrap so
// the host's original error survives errors.As/errors.Is and message
// matching (spec.md's end-to-end scenario 4 downcasts the RuntimeError back
// to the host's literal error value).
type HostError struct {
	Err    error
	Frames []Frame
}

func (h *HostError) Error() string { return h.Err.Error() }

func (h *HostError) Unwrap() error { return h.Err }

// signal is the payload panic/recover carries across catch_traps frames. It
// is unexported so only this package's Raise/RaiseHostError/CatchTraps can
// produce or consume one; any other panic value propagates unchanged
// (spec.md §4.8's "unknown PC is fatal" becomes, in Go terms, "an
// unrecognized panic keeps unwinding").
type signal struct{ err error }

// Raise aborts the current guest call with code, attaching frames as its
// backtrace. Call this from a bounds check, an explicit trap instruction
// (unreachable, integer division by zero), or a failed indirect-call check
// (table.IndirectCallCheck's bounds, null and signature results, raised by
// internal/refcompiler) — anywhere spec.md's component designs say a
// component "traps".
func Raise(code api.TrapCode, frames []Frame) {
	panic(signal{err: &Trap{Code: code, Frames: append([]Frame(nil), frames...)}})
}

// RaiseHostError aborts the current guest call because a host import it
// called returned err, the same catch_traps boundary a guest-originated
// Raise unwinds through, wrapped as a HostError rather than a Trap.
func RaiseHostError(err error, frames []Frame) {
	panic(signal{err: &HostError{Err: err, Frames: append([]Frame(nil), frames...)}})
}

// CatchTraps runs fn, pushing a recovery boundary equivalent to spec.md's
// catch_traps: any Raise call (direct or many frames deep) inside fn is
// caught here and returned as err instead of continuing to unwind. A panic
// fn raises that did not originate from Raise re-panics, matching the
// "unknown PC is fatal (re-raise)" policy for faults this machinery cannot
// attribute to a known trap.
//
// Ordering (spec.md §4.8): nested CatchTraps calls each recover only the
// signal raised inside their own fn, because Go's defer/recover unwinds
// innermost-first — the outermost CatchTraps never observes a trap a nested
// one already caught.
func CatchTraps(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s, ok := r.(signal)
			if !ok {
				panic(r)
			}
			err = s.err
		}
	}()
	fn()
	return nil
}

// FrameStack is a per-call-chain stack of Frames, pushed and popped around
// each guest call by the call package, and snapshotted into a Trap when
// Raise fires. It is not safe for concurrent use — matching the
// single-threaded-per-Store execution model of spec.md §5, exactly one
// FrameStack exists per outermost catch_traps invocation.
type FrameStack struct {
	frames []Frame
}

// Push records f as the currently-executing frame.
func (s *FrameStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop discards the most recently pushed frame.
func (s *FrameStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Snapshot returns a copy of the current frames, suitable for attaching to
// a Trap raised right now.
func (s *FrameStack) Snapshot() []Frame {
	return append([]Frame(nil), s.frames...)
}

// Depth reports how many frames are currently pushed, for stack-overflow
// accounting (see MaxDepth below).
func (s *FrameStack) Depth() int { return len(s.frames) }

// MaxDepth bounds the call depth a FrameStack will permit before treating
// further recursion as a stack overflow. Go grows goroutine stacks
// automatically and has no guard page a wasmcore-compiled function can
// fault into (spec.md §4.8's "probestack libcall"), so wasmcore approximates
// that check cooperatively: the call package consults CheckDepth before
// every call instruction instead of relying on a hardware fault.
const MaxDepth = 8192

// CheckDepth raises TrapCodeStackOverflow if s has reached MaxDepth.
func CheckDepth(s *FrameStack) {
	if s.Depth() >= MaxDepth {
		Raise(api.TrapCodeStackOverflow, s.Snapshot())
	}
}

// Interrupter implements the per-thread interrupt flag of spec.md §4.8/§5:
// an external watchdog calls Request, and the running call checks
// CheckSafepoint at its own cooperative safepoints (wasmcore puts one at
// every call made through call.Trampoline — each host-to-guest entry and
// each guest call instruction — the same place a compiled backend would
// insert a probestack check; internal/refcompiler has no loop instructions,
// so there are no back-edge safepoints). At most one pending interrupt is
// tracked, matching the spec's "at most one pending interrupt per thread".
type Interrupter struct {
	requested atomic.Bool
}

// Request marks an interrupt as pending.
func (i *Interrupter) Request() { i.requested.Store(true) }

// CheckSafepoint consumes a pending interrupt, if any, and raises
// TrapCodeInterrupt for it. No-op if no interrupt is pending.
func (i *Interrupter) CheckSafepoint(s *FrameStack) {
	if i.requested.CompareAndSwap(true, false) {
		Raise(api.TrapCodeInterrupt, s.Snapshot())
	}
}
