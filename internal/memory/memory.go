// Package memory implements the Linear Memory VM object of spec.md §4.6: a
// growable byte array addressed in 64KiB pages, backed by either a Static
// heap (pre-reserved address space plus a guard region, grown with
// mprotect only) or a Dynamic heap (the committed region itself grows,
// possibly moving the base pointer, with a fixed trailing guard).
//
// Grounded on the teacher's two-tier approach to memory backends (wazero's
// internal/wasm distinguishes a MemoryInstance from its allocator), adapted
// to spec.md's Static/Dynamic terminology straight out of wasmer's
// lib/api/src/entities/memory/mod.rs (see _examples/original_source), and
// wired to internal/platform's mmap/mprotect wrappers rather than a manual
// byte slice, so the bytes past the current size are inaccessible
// (PROT_NONE). A fault on them is not turned into a trap: the trap package
// works by panic/recover only, and internal/refcompiler bounds-checks every
// access against Bytes() and raises HeapOutOfBounds itself.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wasmcore/runtime/internal/platform"
)

// PageSize is the fixed Wasm linear memory page size (spec.md Glossary).
const PageSize = 65536

// Style selects how a Memory's address space is reserved and grown
// (spec.md §4.6).
type Style int

const (
	// StyleStatic pre-reserves Bound pages of address space plus a
	// trailing OffsetGuardSize guard; Grow only ever calls mprotect,
	// never moving the base pointer.
	StyleStatic Style = iota
	// StyleDynamic commits exactly Minimum pages plus a trailing
	// OffsetGuardSize guard; Grow reallocates the committed region and
	// may move the base pointer, for shared memories as well.
	StyleDynamic
)

// Config describes how to construct a Memory (spec.md §3).
type Config struct {
	Minimum uint32 // pages
	Maximum *uint32 // pages, optional
	Shared  bool

	Style           Style
	Bound           uint32 // pages; meaningful for StyleStatic.
	OffsetGuardSize uint64 // bytes.
}

// MemoryError is the taxonomy spec.md §7 assigns to this component.
type MemoryError struct {
	Kind    MemoryErrorKind
	Current uint32
	Delta   uint32
	Reason  string
}

// MemoryErrorKind enumerates MemoryError variants.
type MemoryErrorKind int

const (
	ErrKindCouldNotGrow MemoryErrorKind = iota
	ErrKindMaximumTooLarge
	ErrKindInvalidMemory
	ErrKindRegion
)

func (e *MemoryError) Error() string {
	switch e.Kind {
	case ErrKindCouldNotGrow:
		return fmt.Sprintf("memory: could not grow from %d pages by %d pages", e.Current, e.Delta)
	case ErrKindMaximumTooLarge:
		return fmt.Sprintf("memory: maximum too large: %s", e.Reason)
	case ErrKindInvalidMemory:
		return fmt.Sprintf("memory: invalid memory: %s", e.Reason)
	default:
		return fmt.Sprintf("memory: region error: %s", e.Reason)
	}
}

// ErrOutstandingViews is returned by Reset when called on a shared memory,
// which can never be reset (spec.md §4.6: "only permitted when unshared").
var ErrOutstandingViews = errors.New("memory: reset not permitted on a shared memory")

// Memory is a concrete Linear Memory (spec.md §3/§4.6).
type Memory struct {
	mu sync.Mutex // serializes Grow/Reset; guest reads/writes bypass this per the single-threaded-Store model (spec.md §5).

	cfg     Config
	current uint32 // pages
	region  []byte // len == (reserved bound or current, depending on style) * PageSize + guard, PROT_NONE past `current`.
}

// New constructs a Memory per cfg, committing cfg.Minimum pages immediately.
func New(cfg Config) (*Memory, error) {
	if cfg.Maximum != nil && cfg.Minimum > *cfg.Maximum {
		return nil, &MemoryError{Kind: ErrKindMaximumTooLarge, Reason: "minimum exceeds maximum"}
	}

	m := &Memory{cfg: cfg}
	switch cfg.Style {
	case StyleStatic:
		total := uint64(cfg.Bound)*PageSize + cfg.OffsetGuardSize
		region, err := platform.MmapReserve(int(total))
		if err != nil {
			return nil, &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
		}
		m.region = region
		if cfg.Minimum > 0 {
			if err := platform.Mprotect(region[:uint64(cfg.Minimum)*PageSize], platform.ProtRead|platform.ProtWrite); err != nil {
				return nil, &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
			}
		}
	case StyleDynamic:
		total := uint64(cfg.Minimum)*PageSize + cfg.OffsetGuardSize
		region, err := platform.MmapReadWrite(int(total))
		if err != nil {
			return nil, &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
		}
		if cfg.OffsetGuardSize > 0 {
			if err := platform.Mprotect(region[uint64(cfg.Minimum)*PageSize:], 0); err != nil {
				return nil, &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
			}
		}
		m.region = region
	}
	m.current = cfg.Minimum
	return m, nil
}

// Size returns the current size in pages.
func (m *Memory) Size() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Shared reports whether this Memory was created with Config.Shared.
func (m *Memory) Shared() bool { return m.cfg.Shared }

// Bytes returns a slice over the currently-addressable bytes, [0,
// Size()*PageSize). Valid until the next Grow or Reset — spec.md §4.6's
// "valid only while no concurrent grow/reset runs" is the caller's
// responsibility to uphold, matching the single-threaded-per-Store
// execution model of spec.md §5.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.region[:uint64(m.current)*PageSize]
}

// GuardCapacity returns the number of trailing inaccessible bytes past the
// current size — the guard region an out-of-bounds access within
// `static_offset + max_access_size` will fault into (spec.md §4.6).
func (m *Memory) GuardCapacity() uint64 {
	return uint64(len(m.region)) - uint64(m.current)*PageSize
}

// Grow attempts to add delta pages. On success it returns the previous page
// count; previously-readable bytes keep their contents (spec.md §8
// quantified invariant). On failure, the Memory is left entirely unchanged.
func (m *Memory) Grow(delta uint32) (previous uint32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous = m.current
	newSize := uint64(m.current) + uint64(delta)
	if m.cfg.Maximum != nil && newSize > uint64(*m.cfg.Maximum) {
		return previous, &MemoryError{Kind: ErrKindCouldNotGrow, Current: m.current, Delta: delta}
	}

	switch m.cfg.Style {
	case StyleStatic:
		if newSize > uint64(m.cfg.Bound) {
			return previous, &MemoryError{Kind: ErrKindCouldNotGrow, Current: m.current, Delta: delta}
		}
		from, to := uint64(m.current)*PageSize, newSize*PageSize
		if to > from {
			if err := platform.Mprotect(m.region[from:to], platform.ProtRead|platform.ProtWrite); err != nil {
				return previous, &MemoryError{Kind: ErrKindCouldNotGrow, Current: m.current, Delta: delta, Reason: err.Error()}
			}
		}
		m.current = uint32(newSize)
		return previous, nil
	default: // StyleDynamic
		total := newSize*PageSize + m.cfg.OffsetGuardSize
		grown, err := platform.MmapReadWrite(int(total))
		if err != nil {
			return previous, &MemoryError{Kind: ErrKindCouldNotGrow, Current: m.current, Delta: delta, Reason: err.Error()}
		}
		copy(grown, m.region[:uint64(m.current)*PageSize])
		if m.cfg.OffsetGuardSize > 0 {
			if err := platform.Mprotect(grown[newSize*PageSize:], 0); err != nil {
				_ = platform.Munmap(grown)
				return previous, &MemoryError{Kind: ErrKindCouldNotGrow, Current: m.current, Delta: delta, Reason: err.Error()}
			}
		}
		old := m.region
		m.region = grown
		m.current = uint32(newSize)
		if len(old) > 0 {
			_ = platform.Munmap(old)
		}
		return previous, nil
	}
}

// Reset returns the Memory to zero pages. Only permitted on an unshared
// memory with no outstanding views (spec.md §4.6) — wasmcore enforces the
// "unshared" half of that contract (outstanding views are a caller
// discipline, as with Bytes above).
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.Shared {
		return ErrOutstandingViews
	}

	switch m.cfg.Style {
	case StyleStatic:
		if m.current > 0 {
			if err := platform.Mprotect(m.region[:uint64(m.current)*PageSize], 0); err != nil {
				return &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
			}
		}
	default:
		if m.cfg.OffsetGuardSize > 0 {
			fresh, err := platform.MmapReadWrite(int(m.cfg.OffsetGuardSize))
			if err != nil {
				return &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
			}
			if err := platform.Mprotect(fresh, 0); err != nil {
				return &MemoryError{Kind: ErrKindRegion, Reason: err.Error()}
			}
			old := m.region
			m.region = fresh
			if len(old) > 0 {
				_ = platform.Munmap(old)
			}
		}
	}
	m.current = 0
	return nil
}

// TryClone returns another handle to the *same* underlying storage, iff m
// is shared (spec.md §4.6). Growth performed through either handle is
// visible through the other, because both handles are the same *Memory.
// For a StyleDynamic memory that growth can move the base pointer.
func (m *Memory) TryClone() (*Memory, bool) {
	if !m.cfg.Shared {
		return nil, false
	}
	return m, true
}

// TryCopy produces a new Memory with the same contents as m (a deep copy),
// regardless of whether m is shared.
func (m *Memory) TryCopy() (*Memory, error) {
	m.mu.Lock()
	cfg := m.cfg
	cfg.Minimum = m.current
	snapshot := append([]byte(nil), m.region[:uint64(m.current)*PageSize]...)
	m.mu.Unlock()

	cp, err := New(cfg)
	if err != nil {
		return nil, err
	}
	copy(cp.region, snapshot)
	return cp, nil
}

// Free releases the backing mmap. Once called, m must not be used again.
func (m *Memory) Free() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.region) == 0 {
		return nil
	}
	err := platform.Munmap(m.region)
	m.region = nil
	return err
}
