// Package table implements the Table VM object of spec.md §4.7: a typed,
// resizable array of element slots used for indirect calls (funcref) and
// opaque host handles (externref). wasmcore implements the single style
// spec.md names, CallerChecksSignature: every slot carries its own
// signature index and the indirect-call site is responsible for comparing
// it against the expected signature before calling through.
package table

import (
	"errors"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/sigreg"
)

// ErrMaximumExceeded is returned by Grow when growing would exceed the
// table's declared maximum.
var ErrMaximumExceeded = errors.New("table: grow would exceed maximum element count")

// Element is one table slot. An Element with Null set (NullElement) is an
// empty slot; the zero Element is not null.
// per spec.md §4.7, calling through a null slot traps IndirectCallToNull.
type Element struct {
	Null bool

	// Func* fields are meaningful when Type == api.ValueTypeFuncref and
	// !Null: the function-pointer/VMContext-pointer/signature triple the
	// indirect call sequence (spec.md §4.7) checks.
	FuncPtr  *byte
	FuncCtx  uintptr
	FuncSig  sigreg.Index

	// Extern is meaningful when Type == api.ValueTypeExternref and !Null:
	// an opaque 64-bit handle (spec.md §4.9).
	Extern uintptr
}

// NullElement is the empty table slot value.
var NullElement = Element{Null: true}

// Type describes a table's element type and size bounds, independent of any
// live storage — the shape internal/tunables.Tunables.TableStyle reports
// back to an Engine before a concrete Table is allocated.
type Type struct {
	Element api.ValueType
	Minimum uint32
	Maximum *uint32
}

// Table is a resizable vector of typed Element slots with a declared
// minimum/maximum element count (spec.md §3, §4.7).
type Table struct {
	Type    api.ValueType // api.ValueTypeFuncref or api.ValueTypeExternref
	Maximum *uint32       // nil means unbounded.

	elements []Element
}

// New returns a Table of the given element type, minimum size, and optional
// maximum, with every slot initialized to NullElement.
func New(t api.ValueType, min uint32, max *uint32) *Table {
	tbl := &Table{Type: t, Maximum: max, elements: make([]Element, min)}
	for i := range tbl.elements {
		tbl.elements[i] = NullElement
	}
	return tbl
}

// Len returns the current number of elements.
func (t *Table) Len() uint32 { return uint32(len(t.elements)) }

// Get returns the slot at index, and whether index was in bounds. Per
// spec.md §4.7 step 1, an indirect-call site must bounds-check separately
// and trap TableOutOfBounds on failure rather than relying on this ok flag
// to carry trap semantics — Get itself never traps, it just reports bounds.
func (t *Table) Get(index uint32) (Element, bool) {
	if index >= uint32(len(t.elements)) {
		return Element{}, false
	}
	return t.elements[index], true
}

// Set overwrites the slot at index. Returns false if index is out of
// bounds.
func (t *Table) Set(index uint32, e Element) bool {
	if index >= uint32(len(t.elements)) {
		return false
	}
	t.elements[index] = e
	return true
}

// Grow extends the table by delta elements, each initialized to init, and
// returns the previous length. Fails with ErrMaximumExceeded if the new
// length would exceed Maximum (spec.md §4.7, §8 round-trip law: new slots
// equal init).
func (t *Table) Grow(delta uint32, init Element) (previous uint32, err error) {
	previous = t.Len()
	newLen := uint64(previous) + uint64(delta)
	if t.Maximum != nil && newLen > uint64(*t.Maximum) {
		return previous, ErrMaximumExceeded
	}
	if newLen > uint64(^uint32(0)) {
		return previous, ErrMaximumExceeded
	}
	grown := make([]Element, newLen)
	copy(grown, t.elements)
	for i := previous; uint64(i) < newLen; i++ {
		grown[i] = init
	}
	t.elements = grown
	return previous, nil
}

// IndirectCallCheck implements the bounds/null/signature checks of the
// indirect call sequence in spec.md §4.7 steps 1-3. It returns the element
// to call through, or a TrapCode describing why the call cannot proceed.
func (t *Table) IndirectCallCheck(index uint32, expected sigreg.Index) (Element, api.TrapCode, bool) {
	e, ok := t.Get(index)
	if !ok {
		return Element{}, api.TrapCodeTableOutOfBounds, false
	}
	if e.Null {
		return Element{}, api.TrapCodeIndirectCallToNull, false
	}
	if e.FuncSig != expected {
		return Element{}, api.TrapCodeBadSignature, false
	}
	return e, 0, true
}
