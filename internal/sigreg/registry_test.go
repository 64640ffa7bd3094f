package sigreg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmcore/runtime/api"
)

func TestRegister_Idempotent(t *testing.T) {
	r := New()
	sig := api.FuncType{Params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}

	idx1 := r.Register(sig)
	idx2 := r.Register(sig)
	require.Equal(t, idx1, idx2)
	require.Equal(t, 1, r.Len())
}

func TestRegister_DistinctSignaturesDistinctIndexes(t *testing.T) {
	r := New()
	a := api.FuncType{Params: []api.ValueType{api.ValueTypeI32}, Results: nil}
	b := api.FuncType{Params: []api.ValueType{api.ValueTypeI64}, Results: nil}

	idxA := r.Register(a)
	idxB := r.Register(b)
	require.NotEqual(t, idxA, idxB)
}

func TestLookup_RoundTrip(t *testing.T) {
	r := New()
	sig := api.FuncType{Params: []api.ValueType{api.ValueTypeF64}, Results: []api.ValueType{api.ValueTypeF64}}
	idx := r.Register(sig)

	got, ok := r.Lookup(idx)
	require.True(t, ok)
	require.True(t, got.Equal(sig))
}

func TestLookup_UnknownIndex(t *testing.T) {
	r := New()
	_, ok := r.Lookup(42)
	require.False(t, ok)
	_, ok = r.Lookup(Invalid)
	require.False(t, ok)
}

// TestRegister_CallerMutationDoesNotAliasInternedCopy guards the invariant
// that Register copies its Params/Results slices, matching spec.md's
// demand that interned signatures be stable for the lifetime of the
// Registry regardless of what the caller does with its own FuncType after
// registering it.
func TestRegister_CallerMutationDoesNotAliasInternedCopy(t *testing.T) {
	r := New()
	params := []api.ValueType{api.ValueTypeI32}
	sig := api.FuncType{Params: params}
	idx := r.Register(sig)

	params[0] = api.ValueTypeI64

	got, ok := r.Lookup(idx)
	require.True(t, ok)
	require.Equal(t, api.ValueTypeI32, got.Params[0])
}
