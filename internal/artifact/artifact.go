package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/codemem"
	"github.com/wasmcore/runtime/internal/linker"
	"github.com/wasmcore/runtime/internal/refcompiler"
	"github.com/wasmcore/runtime/internal/sigreg"
	"github.com/wasmcore/runtime/internal/tunables"
)

// magic identifies a wasmcore universal artifact blob (spec.md §4.4: "Magic
// bytes (8 bytes, per engine format) identifying 'universal artifact'").
var magic = [8]byte{'w', 'c', 'o', 'r', 'e', 'u', 'n', 'i'}

// ErrIncompatible is returned by Deserialize when the blob's magic header
// does not identify a wasmcore artifact (spec.md §6: "cross-engine loads
// fail with DeserializeError::Incompatible").
var ErrIncompatible = errors.New("artifact: incompatible blob (bad magic header)")

// CompiledFunction is one locally-defined function's compiled form: the IR
// it was compiled from (kept so Deserialize can reattach the interpreter
// without a real compiler back-end, see the package doc's Open Question
// note in DESIGN.md), the resulting executable closure, and the Code Memory
// slice reserved for it.
type CompiledFunction struct {
	Body  refcompiler.FuncBody
	Entry refcompiler.Func
	Slice codemem.Slice
}

// Artifact is the immutable compiled module of spec.md §4.4. Safe for
// concurrent use by multiple Instances once constructed: nothing about
// instantiate() mutates the Artifact.
type Artifact struct {
	mu sync.Mutex // guards name only; everything else is write-once at construction.

	Module     *Module
	Signatures *sigreg.Registry
	Tunables   tunables.Tunables

	Functions       []CompiledFunction          // local functions, module order.
	CallTrampolines map[sigreg.Index]call.Trampoline
	DynamicImports  []call.Trampoline // one per ImportFunc entry, module order.
	CustomSections  []CustomSection

	region *codemem.Region
	name   string
}

// Compile implements spec.md §4.4's Compile construction path: allocate
// signatures from the Signature Registry, compile every local function
// (concurrently — "the expensive work is parallelized per function"),
// build call trampolines for every distinct signature and dynamic-import
// trampolines for every imported function, lay the result out in Code
// Memory, and publish it.
func Compile(m *Module, sigs *sigreg.Registry, tun tunables.Tunables) (*Artifact, error) {
	a := &Artifact{Module: m, Signatures: sigs, Tunables: tun, name: m.Name}

	for _, sig := range m.FunctionSignatures {
		sigs.Register(sig)
	}

	a.Functions = make([]CompiledFunction, len(m.Functions))
	var wg sync.WaitGroup
	for i, fb := range m.Functions {
		wg.Add(1)
		go func(i int, fb refcompiler.FuncBody) {
			defer wg.Done()
			a.Functions[i] = CompiledFunction{Body: fb, Entry: refcompiler.Compile(fb)}
		}(i, fb)
	}
	wg.Wait()

	a.CallTrampolines = make(map[sigreg.Index]call.Trampoline, sigs.Len())
	for idx := sigreg.Index(0); idx < sigreg.Index(sigs.Len()); idx++ {
		sig, _ := sigs.Lookup(idx)
		a.CallTrampolines[idx] = call.Trampoline{Signature: sig, FuncIndex: int(idx), FuncName: fmt.Sprintf("sig[%d]", idx)}
	}

	importedFuncIdx := 0
	for _, imp := range m.Imports {
		if imp.Kind != ImportFunc {
			continue
		}
		a.DynamicImports = append(a.DynamicImports, call.Trampoline{
			Signature: imp.FuncSignature,
			FuncIndex: importedFuncIdx,
			FuncName:  fmt.Sprintf("%s.%s", imp.Namespace, imp.Name),
		})
		importedFuncIdx++
	}

	a.CustomSections = m.CustomSections

	if err := a.allocateCodeMemory(); err != nil {
		return nil, err
	}
	return a, nil
}

// allocateCodeMemory lays out placeholder bodies for every local function
// (spec.md §4.2's run of function bodies) and publishes the region.
// wasmcore's one shipped backend (internal/refcompiler) executes via Go
// closures rather than jumping into these bytes — see its package doc — so
// the bodies here are reserved space plus a self-identifying marker, not
// real machine code; the Linker and Code Memory contracts they exercise are
// unit-tested directly against synthetic relocations in their own packages.
func (a *Artifact) allocateCodeMemory() error {
	bodies := make([][]byte, len(a.Functions))
	for i := range bodies {
		stub := make([]byte, 16)
		binary.LittleEndian.PutUint32(stub, uint32(i))
		bodies[i] = stub
	}

	roSections := make([][]byte, len(a.CustomSections))
	for i, cs := range a.CustomSections {
		roSections[i] = cs.Data
	}

	region, err := codemem.Allocate(bodies, nil, roSections)
	if err != nil {
		return fmt.Errorf("artifact: allocate code memory: %w", err)
	}

	relocs := make([][]linker.Relocation, len(region.Bodies))
	if err := linker.Patch(region.Bodies, relocs, nil, nil); err != nil {
		return fmt.Errorf("artifact: link: %w", err)
	}
	region.MarkLinked()
	if err := region.Publish(); err != nil {
		return fmt.Errorf("artifact: publish: %w", err)
	}

	for i := range a.Functions {
		a.Functions[i].Slice = region.Bodies[i]
	}
	a.region = region
	return nil
}

// Region exposes the artifact's Code Memory region, for an Engine to track
// in its codemem.List (spec.md §4.2).
func (a *Artifact) Region() *codemem.Region { return a.region }

// Name returns the artifact's metadata-only name.
func (a *Artifact) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// SetName overwrites the artifact's metadata-only name.
func (a *Artifact) SetName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
}

// Imports returns the module's import descriptors, in module order.
func (a *Artifact) Imports() []Import { return a.Module.Imports }

// Exports returns the module's export descriptors, in module order.
func (a *Artifact) Exports() []Export { return a.Module.Exports }

// payload is the on-the-wire shape of a serialized artifact (spec.md §4.4's
// "SerializableModule"): enough to reconstruct a Module and, for wasmcore's
// interpreter backend, to reattach compiled Funcs without invoking a
// compiler back-end (see DESIGN.md's Open Question resolution for why that
// is legal under the headless-engine contract of spec.md §4.10/§6).
type payload struct {
	Module *Module
}

// Serialize produces the bit-exact layout spec.md §4.4 describes: magic,
// a length-prefixed metadata header, the SerializableModule payload, and
// trailing zero padding to a 4096-byte page boundary.
func (a *Artifact) Serialize() ([]byte, error) {
	body, err := msgpack.Marshal(&payload{Module: a.Module})
	if err != nil {
		return nil, fmt.Errorf("artifact: serialize: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(body)))
	buf.Write(lenPrefix[:])
	buf.Write(body)

	const pageSize = 4096
	if pad := pageSize - buf.Len()%pageSize; pad != pageSize {
		buf.Write(make([]byte, pad))
	}
	return buf.Bytes(), nil
}

// Deserialize reconstructs an Artifact from a blob produced by Serialize.
// It never runs a compiler back-end (spec.md §4.4): the interpreter
// attachment in allocateCodeMemory/refcompiler.Compile is a fixed,
// target-independent operation, not a codegen decision, so Deserialize
// remains legal against a headless Engine (one with no Compiler registered
// for from-scratch compilation).
func Deserialize(data []byte, sigs *sigreg.Registry, tun tunables.Tunables) (*Artifact, error) {
	if len(data) < 16 || !bytes.Equal(data[:8], magic[:]) {
		return nil, ErrIncompatible
	}
	bodyLen := binary.LittleEndian.Uint64(data[8:16])
	if uint64(len(data)-16) < bodyLen {
		return nil, fmt.Errorf("artifact: truncated blob: want %d body bytes, have %d", bodyLen, len(data)-16)
	}
	body := data[16 : 16+bodyLen]

	var p payload
	if err := msgpack.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("artifact: deserialize: %w", err)
	}
	return Compile(p.Module, sigs, tun)
}
