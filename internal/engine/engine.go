package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/codemem"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/tunables"
	"github.com/wasmcore/runtime/internal/wasmlog"
)

// ErrHeadless is returned by Validate and Compile when the Engine has no
// Decoder configured (spec.md §4.10's "headless engine").
var ErrHeadless = errors.New("engine: headless (no decoder configured); only Deserialize is available")

// state is the inner, mutex-guarded value every clone of an Engine shares.
// Keeping it behind one pointer is what makes Engine itself a cheap,
// copyable value whose equality is "do these share the same inner state"
// (spec.md §4.10).
type state struct {
	mu sync.Mutex

	decoder  Decoder
	tunables tunables.Tunables
	features api.CoreFeatures
	target   string

	signatures   *sigreg.Registry
	codeMemories []*codemem.Region
	cache        *lru.Cache[string, *artifact.Artifact]
}

// Engine is the top-level facade of spec.md §4.10. The zero value is not
// usable; construct one with New. Engine is a thin pointer wrapper: copying
// an Engine value copies the pointer, so two Engine values compare equal
// with == iff they share the same inner state, and either one mutating
// shared state (compiling, accumulating Code Memories) is visible through
// the other — exactly the "cheaply cloneable reference" spec.md describes.
type Engine struct {
	inner *state
}

// New constructs an Engine from cfg.
func New(cfg Config) *Engine {
	s := &state{
		decoder:    cfg.decoder,
		tunables:   cfg.tunables,
		features:   cfg.features,
		target:     cfg.target,
		signatures: sigreg.New(),
	}
	if cfg.cacheSize > 0 {
		c, err := lru.New[string, *artifact.Artifact](cfg.cacheSize)
		if err != nil {
			// Only returns an error for a non-positive size, already excluded above.
			panic(fmt.Sprintf("engine: building artifact cache: %v", err))
		}
		s.cache = c
	}
	return &Engine{inner: s}
}

// Headless returns an Engine with no Decoder: Validate and Compile fail
// with ErrHeadless, but Deserialize still works, matching spec.md §4.10.
func Headless() *Engine { return New(HeadlessConfig()) }

// Target returns the Engine's target description, e.g.
// "interpreter/generic".
func (e *Engine) Target() string { return e.inner.target }

// Signatures returns the Engine's shared Signature Registry, the same
// Registry every Artifact this Engine compiles or deserializes registers
// its signatures into.
func (e *Engine) Signatures() *sigreg.Registry { return e.inner.signatures }

// Tunables returns the Engine's configured Tunables policy.
func (e *Engine) Tunables() tunables.Tunables { return e.inner.tunables }

// Features returns the Engine's enabled CoreFeatures.
func (e *Engine) Features() api.CoreFeatures { return e.inner.features }

// CodeMemoryRegions returns every Code Memory region this Engine has
// accumulated so far, across every Compile/Deserialize call that
// succeeded. Never shrinks: spec.md §4.2, "never reclaimed for the
// Engine's lifetime".
func (e *Engine) CodeMemoryRegions() []*codemem.Region {
	e.inner.mu.Lock()
	defer e.inner.mu.Unlock()
	return append([]*codemem.Region(nil), e.inner.codeMemories...)
}

func (e *Engine) track(a *artifact.Artifact) {
	e.inner.mu.Lock()
	defer e.inner.mu.Unlock()
	e.inner.codeMemories = append(e.inner.codeMemories, a.Region())
}

// Validate decodes wasmBytes and reports whether the result is well formed,
// without compiling it. Fails with ErrHeadless if no Decoder is configured.
func (e *Engine) Validate(wasmBytes []byte) error {
	if e.inner.decoder == nil {
		return ErrHeadless
	}
	_, err := e.inner.decoder.Decode(wasmBytes)
	return err
}

// Compile decodes wasmBytes and compiles the result into an Artifact,
// consulting the Engine's artifact cache first if one is configured. Fails
// with ErrHeadless if no Decoder is configured.
func (e *Engine) Compile(wasmBytes []byte) (*artifact.Artifact, error) {
	if e.inner.decoder == nil {
		return nil, ErrHeadless
	}

	key := cacheKey(wasmBytes)
	if e.inner.cache != nil {
		if a, ok := e.inner.cache.Get(key); ok {
			wasmlog.Named("engine").Debug("artifact cache hit")
			return a, nil
		}
	}

	m, err := e.inner.decoder.Decode(wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("engine: decode: %w", err)
	}
	a, err := artifact.Compile(m, e.inner.signatures, e.inner.tunables)
	if err != nil {
		return nil, err
	}
	e.track(a)
	if e.inner.cache != nil {
		e.inner.cache.Add(key, a)
	}
	return a, nil
}

// Deserialize reconstructs an Artifact from a blob Artifact.Serialize
// produced. Unlike Compile, this succeeds even on a headless Engine: it
// never invokes a Decoder or a from-scratch compiler back-end, only
// wasmcore's fixed, target-independent interpreter attachment (see
// internal/artifact's package doc).
func (e *Engine) Deserialize(blob []byte) (*artifact.Artifact, error) {
	a, err := artifact.Deserialize(blob, e.inner.signatures, e.inner.tunables)
	if err != nil {
		return nil, err
	}
	e.track(a)
	return a, nil
}

// DeserializeFromFile reads path and deserializes it as an Artifact blob.
func (e *Engine) DeserializeFromFile(path string) (*artifact.Artifact, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read artifact file: %w", err)
	}
	return e.Deserialize(blob)
}

func cacheKey(wasmBytes []byte) string {
	// The raw input bytes as a string key are sufficient here: the cache is
	// process-local and keyed by exact input bytes, not intended as a
	// content hash exposed to anything outside this Engine.
	return string(wasmBytes)
}
