// Package codemem implements the Code Memory allocator of spec.md §4.2: it
// lays out function bodies, read-execute custom sections, and read-only
// data sections inside one mmap'd region, then transitions that region
// through the three-state protocol spec.md §9 describes — writable &
// unlinked, writable & linked, executable & published — never allowing
// execution before publish or writes after it.
//
// Grounded on the teacher's internal/engine/wazevo.engine, which allocates
// one RW executable mmap per compiled module via platform.MmapCodeSegment,
// copies compiled function bytes in at 16-byte-aligned offsets, resolves
// relocations, then mprotects to R-X — and keeps every such region alive in
// a slice for the lifetime of the owning engine because compiled code may
// still be referenced by live instances.
package codemem

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wasmcore/runtime/internal/platform"
)

// Slice names one allocation inside a Region: its byte offset and length.
// Base() is only valid once the owning Region has been allocated (it is
// valid before Publish(), but executing through it before Publish() is
// undefined per the three-state protocol).
type Slice struct {
	region *Region
	Offset int
	Len    int
}

// Base returns a pointer to the first byte of this slice inside its Region.
func (s Slice) Base() *byte {
	if s.Len == 0 {
		return nil
	}
	return &s.region.data[s.Offset]
}

// Addr returns the numeric address of the first byte of this slice, for
// relocation patching (internal/linker) and export tables that need a plain
// integer rather than a *byte. Zero for an empty slice.
func (s Slice) Addr() uintptr {
	if s.Len == 0 {
		return 0
	}
	return uintptr(ptrOf(&s.region.data[s.Offset]))
}

// Bytes returns the slice's bytes. Do not retain this slice header once the
// Region has been published and you intend to write through it: per the
// three-state protocol, writing after Publish is undefined.
func (s Slice) Bytes() []byte {
	if s.Len == 0 {
		return nil
	}
	return s.region.data[s.Offset : s.Offset+s.Len]
}

const alignment = 16 // sufficient for x86-64 and aarch64 instruction fetch, per spec.md §4.2.

// state is the three-state code-memory protocol of spec.md §9.
type state int

const (
	stateUnlinked state = iota
	stateLinked
	statePublished
)

// Region is one contiguous Code Memory allocation: a run of function
// bodies, then a run of read-execute custom sections, then a run of
// read-only data sections, exactly as spec.md §4.2 orders them.
type Region struct {
	mu    sync.Mutex
	data  []byte
	state state

	Bodies       []Slice
	ExecSections []Slice
	ROSections   []Slice

	ehFrame []byte // registered by RegisterUnwind; retained, not read back.
}

// Allocate copies bodies, then roExecSections, then roSections into one new
// mmap'd RW region, 16-byte-aligning every entry, and returns the Region in
// the "writable, not yet linked" state. The Region is safe to patch with
// relocations (internal/linker) until Publish is called.
func Allocate(bodies, roExecSections, roSections [][]byte) (*Region, error) {
	total := 0
	var layout []int
	appendLayout := func(bs [][]byte) {
		for _, b := range bs {
			total = align(total, alignment)
			layout = append(layout, total)
			total += len(b)
		}
	}
	appendLayout(bodies)
	appendLayout(roExecSections)
	appendLayout(roSections)

	if total == 0 {
		return &Region{state: stateLinked}, nil
	}

	data, err := platform.MmapReadWrite(total)
	if err != nil {
		return nil, fmt.Errorf("codemem: mmap %d bytes: %w", total, err)
	}

	r := &Region{data: data}
	li := 0
	mk := func(bs [][]byte, dst *[]Slice) {
		for _, b := range bs {
			off := layout[li]
			li++
			copy(data[off:off+len(b)], b)
			*dst = append(*dst, Slice{region: r, Offset: off, Len: len(b)})
		}
	}
	mk(bodies, &r.Bodies)
	mk(roExecSections, &r.ExecSections)
	mk(roSections, &r.ROSections)
	return r, nil
}

// MarkLinked transitions the Region from "writable, not yet linked" to
// "writable, linked" once the Linker has patched every relocation. Publish
// returns an error if called before MarkLinked on a non-empty Region.
func (r *Region) MarkLinked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateUnlinked {
		r.state = stateLinked
	}
}

// Publish transitions the whole region from RW to R-X for the function
// bodies and exec sections, and R for the read-only data sections. After
// Publish returns nil, writing through any Slice of this Region is
// undefined; before Publish, executing through one is undefined.
func (r *Region) Publish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == 0 {
		r.state = statePublished
		return nil
	}
	if r.state == stateUnlinked {
		return fmt.Errorf("codemem: publish called before relocations were linked")
	}
	if r.state == statePublished {
		return nil
	}

	if execEnd := execBoundary(r); execEnd > 0 {
		if err := platform.Mprotect(r.data[:execEnd], platform.ProtRead|platform.ProtExec); err != nil {
			return fmt.Errorf("codemem: mprotect r-x: %w", err)
		}
		if execEnd < len(r.data) {
			if err := platform.Mprotect(r.data[execEnd:], platform.ProtRead); err != nil {
				return fmt.Errorf("codemem: mprotect r: %w", err)
			}
		}
	} else {
		if err := platform.Mprotect(r.data, platform.ProtRead); err != nil {
			return fmt.Errorf("codemem: mprotect r: %w", err)
		}
	}
	r.state = statePublished
	return nil
}

// execBoundary returns the offset one past the last byte belonging to a
// body or exec section (the boundary between the R-X prefix and the R-only
// suffix), or 0 if there are none.
func execBoundary(r *Region) int {
	end := 0
	for _, s := range r.Bodies {
		if e := s.Offset + s.Len; e > end {
			end = e
		}
	}
	for _, s := range r.ExecSections {
		if e := s.Offset + s.Len; e > end {
			end = e
		}
	}
	return end
}

// Published reports whether Publish has completed successfully.
func (r *Region) Published() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == statePublished
}

// RegisterUnwind records eh_frame/unwind-table bytes for this region.
// Idempotent within a Region, per spec.md §4.2. wasmcore does not hand this
// off to a native unwinder (that integration is host/OS-specific and out of
// this core's scope); it only retains the table on the Region. Nothing in
// wasmcore reads it back: traps are attributed by internal/trap's
// panic/recover machinery, not by resolving a faulting PC.
func (r *Region) RegisterUnwind(ehFrame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ehFrame == nil {
		r.ehFrame = ehFrame
	}
}

// Base returns the address of the first byte of the region, or 0 if the
// region has no backing allocation (e.g. a module with no functions).
func (r *Region) Base() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(ptrOf(&r.data[0]))
}

// Size returns the length in bytes of the backing mmap.
func (r *Region) Size() int { return len(r.data) }

// Free releases the region's backing mmap. Callers must guarantee no
// Instance still reaches into this Region before calling Free. No finalizer
// calls it: an Engine keeps every Region it publishes in its List and never
// frees one.
func (r *Region) Free() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) == 0 {
		return nil
	}
	err := platform.Munmap(r.data)
	r.data = nil
	return err
}

func align(n, to int) int {
	if n%to == 0 {
		return n
	}
	return (n/to + 1) * to
}

// List is a collection of Regions kept alive for an Engine's lifetime,
// ordered by base address so a faulting PC can be resolved to its owning
// Region in O(log n). Grounded on the teacher's
// engine.sortedCompiledModules / addCompiledModuleToSortedList /
// compiledModuleOfAddr trio in internal/engine/wazevo/engine.go.
type List struct {
	mu      sync.RWMutex
	regions []*Region
}

// Add inserts r into the list, keeping it sorted by base address. Regions
// are never removed for the lifetime of the owning Engine (spec.md §4.2:
// "never reclaimed for the Engine's lifetime").
func (l *List) Add(r *Region) {
	if r.Base() == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	i := sort.Search(len(l.regions), func(i int) bool { return l.regions[i].Base() >= r.Base() })
	l.regions = append(l.regions, nil)
	copy(l.regions[i+1:], l.regions[i:])
	l.regions[i] = r
}

// Find returns the Region whose [Base, Base+Size) contains addr, or nil.
func (l *List) Find(addr uintptr) *Region {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := sort.Search(len(l.regions), func(i int) bool { return l.regions[i].Base() > addr }) - 1
	if i < 0 || i >= len(l.regions) {
		return nil
	}
	r := l.regions[i]
	if addr < r.Base()+uintptr(r.Size()) {
		return r
	}
	return nil
}

// Len reports how many regions are tracked.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.regions)
}
