// Package sigreg implements the Signature Registry of spec.md §4.1: it
// interns api.FuncType values into dense SharedSignatureIndex values so an
// indirect-call check can compare two small integers instead of walking two
// parameter/result lists.
//
// Grounded on wazero's internal/wasm pattern of a mutex-guarded map owned by
// one long-lived object (there, wasm.Store; here, sigreg.Registry), plus
// cespare/xxhash (wired per SPEC_FULL.md's Domain Stack) to bucket
// candidates before falling back to full structural equality, so Register
// is O(1) amortized instead of a linear scan across every signature ever
// interned by this registry.
package sigreg

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/wasmcore/runtime/api"
)

// Index is a SharedSignatureIndex: a dense small integer uniquely naming one
// FuncType within a single Registry. Two FuncTypes registered to the *same*
// Registry receive equal Index values iff they are structurally equal
// (spec.md §8, "Quantified invariants").
type Index uint32

// Invalid is returned by Lookup for an Index that was never registered in
// this Registry (or was registered in a different one).
const Invalid Index = ^Index(0)

type entry struct {
	sig api.FuncType
	idx Index
}

// Registry interns FuncType values. The zero value is not usable; use New.
type Registry struct {
	mu      sync.RWMutex
	buckets map[uint64][]entry
	byIndex []api.FuncType
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{buckets: make(map[uint64][]entry)}
}

// Register interns sig and returns its SharedSignatureIndex, minting a new
// one only the first time an equal FuncType is seen by this Registry.
func (r *Registry) Register(sig api.FuncType) Index {
	h := hashFuncType(sig)

	r.mu.RLock()
	for _, e := range r.buckets[h] {
		if e.sig.Equal(sig) {
			r.mu.RUnlock()
			return e.idx
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check under the write lock: another goroutine may have registered
	// the same signature between the RUnlock above and this Lock.
	for _, e := range r.buckets[h] {
		if e.sig.Equal(sig) {
			return e.idx
		}
	}

	idx := Index(len(r.byIndex))
	// Store a private copy; callers may reuse the backing arrays of sig.
	owned := api.FuncType{
		Params:  append([]api.ValueType(nil), sig.Params...),
		Results: append([]api.ValueType(nil), sig.Results...),
	}
	r.byIndex = append(r.byIndex, owned)
	r.buckets[h] = append(r.buckets[h], entry{sig: owned, idx: idx})
	return idx
}

// Lookup returns the FuncType registered under idx, or (zero, false) if idx
// was never registered in this Registry.
func (r *Registry) Lookup(idx Index) (api.FuncType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(idx) < 0 || int(idx) >= len(r.byIndex) {
		return api.FuncType{}, false
	}
	return r.byIndex[idx], true
}

// Len returns the number of distinct signatures interned so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIndex)
}

func hashFuncType(sig api.FuncType) uint64 {
	d := xxhash.New()
	_, _ = d.Write(sig.Params)
	_, _ = d.Write([]byte{0xff}) // separator: params and results never collide across the boundary
	_, _ = d.Write(sig.Results)
	return d.Sum64()
}
