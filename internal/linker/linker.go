// Package linker implements spec.md §4.3: patching relocations into a Code
// Memory region's function bodies before it is published. The core never
// emits relocations itself (that is a compiler back-end's job, per spec.md
// §6's parser/compiler boundary); it only defines the relocation kinds a
// back-end may request and applies them once every body's final address is
// known.
//
// Grounded on the teacher's compiler-engine relocation pass
// (internal/engine/compiler and wazevo's backend/isa packages resolve
// call-site displacements after code-memory allocation, before mprotect);
// wasmcore keeps the same two-phase shape — allocate, then patch, then
// publish — without depending on any particular ISA encoder.
package linker

import (
	"encoding/binary"
	"fmt"

	"github.com/wasmcore/runtime/internal/codemem"
)

// Kind enumerates the relocation kinds spec.md §4.3 requires "at minimum".
type Kind int

const (
	// PCRelCall is an x86-64 PLT-style relative call: a 4-byte signed
	// displacement from the byte immediately after the patched field to
	// the target.
	PCRelCall Kind = iota
	// AbsPtr32 stores the low 32 bits of an absolute target address.
	AbsPtr32
	// AbsPtr64 stores a full 64-bit absolute target address.
	AbsPtr64
	// Arm64AdrpAdd patches an ADRP+ADD pair: a 4-byte page delta
	// (target_page - pc_page, in 4KiB pages) followed by a 4-byte
	// low-12-bit page offset.
	Arm64AdrpAdd
	// JumpTableEntry stores a 4-byte displacement from the patched entry's
	// own address to a case target, for a compiled br_table.
	JumpTableEntry
)

// TargetKind says how to resolve a Relocation's target address.
type TargetKind int

const (
	// TargetFunction resolves to the base address of compiled function
	// FuncIndex within the same artifact (may be a body or a trampoline).
	TargetFunction TargetKind = iota
	// TargetLibcall resolves to the trampoline registered for Libcall in
	// the libcalls table passed to Patch.
	TargetLibcall
)

// Relocation is one patch site within a function body or trampoline.
type Relocation struct {
	Kind   Kind
	Offset int // byte offset within the owning Slice to patch.

	Target    TargetKind
	FuncIndex int    // meaningful when Target == TargetFunction.
	Libcall   string // meaningful when Target == TargetLibcall.
}

// ErrUnknownRelocationKind reports a relocation whose Kind this Linker does
// not recognize, which spec.md §4.3 calls "a fatal artifact error".
type ErrUnknownRelocationKind struct{ Kind Kind }

func (e ErrUnknownRelocationKind) Error() string {
	return fmt.Sprintf("linker: unknown relocation kind %d", e.Kind)
}

// Patch applies every relocation in relocs[i] to bodies[i], resolving
// TargetFunction relocations against funcBases (indexed the same way as
// bodies, covering both local function bodies and call trampolines) and
// TargetLibcall relocations against libcalls. It must be called on a Region
// still in the writable-unlinked state; the caller is responsible for
// calling region.MarkLinked() once every body's relocations have been
// patched, and must not call Publish before that.
//
// Per spec.md §4.3's failure policy, an error returned here is safe to
// recover from as long as Publish has not yet been called: the region
// remains writable and unlinked, and the caller may simply drop the
// in-progress artifact.
func Patch(bodies []codemem.Slice, relocs [][]Relocation, funcBases []uintptr, libcalls map[string]uintptr) error {
	if len(relocs) != len(bodies) {
		return fmt.Errorf("linker: relocs has %d entries for %d bodies", len(relocs), len(bodies))
	}
	for i, body := range bodies {
		buf := body.Bytes()
		for _, r := range relocs[i] {
			target, err := resolveTarget(r, funcBases, libcalls)
			if err != nil {
				return err
			}
			site := body.Addr() + uintptr(r.Offset)
			if err := patchOne(buf, r, site, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveTarget(r Relocation, funcBases []uintptr, libcalls map[string]uintptr) (uintptr, error) {
	switch r.Target {
	case TargetFunction:
		if r.FuncIndex < 0 || r.FuncIndex >= len(funcBases) {
			return 0, fmt.Errorf("linker: relocation targets out-of-range function %d", r.FuncIndex)
		}
		return funcBases[r.FuncIndex], nil
	case TargetLibcall:
		addr, ok := libcalls[r.Libcall]
		if !ok {
			return 0, fmt.Errorf("linker: unresolved libcall %q", r.Libcall)
		}
		return addr, nil
	default:
		return 0, fmt.Errorf("linker: unknown relocation target kind %d", r.Target)
	}
}

func patchOne(buf []byte, r Relocation, site, target uintptr) error {
	need := func(n int) error {
		if r.Offset < 0 || r.Offset+n > len(buf) {
			return fmt.Errorf("linker: relocation at offset %d (width %d) out of bounds of a %d-byte body", r.Offset, n, len(buf))
		}
		return nil
	}
	switch r.Kind {
	case PCRelCall:
		if err := need(4); err != nil {
			return err
		}
		disp := int64(target) - int64(site+4)
		binary.LittleEndian.PutUint32(buf[r.Offset:], uint32(int32(disp)))
	case AbsPtr32:
		if err := need(4); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[r.Offset:], uint32(target))
	case AbsPtr64:
		if err := need(8); err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[r.Offset:], uint64(target))
	case Arm64AdrpAdd:
		if err := need(8); err != nil {
			return err
		}
		const pageShift = 12
		pageDelta := int32(target>>pageShift) - int32(site>>pageShift)
		pageOffset := uint32(target) & 0xfff
		binary.LittleEndian.PutUint32(buf[r.Offset:], uint32(pageDelta))
		binary.LittleEndian.PutUint32(buf[r.Offset+4:], pageOffset)
	case JumpTableEntry:
		if err := need(4); err != nil {
			return err
		}
		disp := int64(target) - int64(site)
		binary.LittleEndian.PutUint32(buf[r.Offset:], uint32(int32(disp)))
	default:
		return ErrUnknownRelocationKind{Kind: r.Kind}
	}
	return nil
}
