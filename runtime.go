package wasmcore

import (
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/call"
	"github.com/wasmcore/runtime/internal/engine"
	"github.com/wasmcore/runtime/internal/instance"
)

// Runtime is the embedder's entry point: it owns one Engine (and, through
// it, the Signature Registry and Code Memory every Module it compiles or
// instantiates shares) and compiles/instantiates Modules against it.
type Runtime struct {
	eng *engine.Engine
}

// NewRuntime constructs a Runtime from cfg.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	return &Runtime{eng: engine.New(cfg.toEngineConfig())}
}

// CompiledModule is an Artifact ready to be instantiated one or more times.
type CompiledModule struct {
	rt  *Runtime
	art *artifact.Artifact
}

// CompileModule decodes and compiles wasmBytes, using the Decoder supplied
// via RuntimeConfig.WithDecoder. Fails with engine.ErrHeadless if none was
// configured.
func (r *Runtime) CompileModule(wasmBytes []byte) (*CompiledModule, error) {
	a, err := r.eng.Compile(wasmBytes)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{rt: r, art: a}, nil
}

// DeserializeModule reconstructs a CompiledModule from a blob produced by
// CompiledModule.Serialize. Works even on a Runtime whose Engine has no
// Decoder configured.
func (r *Runtime) DeserializeModule(blob []byte) (*CompiledModule, error) {
	a, err := r.eng.Deserialize(blob)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{rt: r, art: a}, nil
}

// DeserializeModuleFromFile is DeserializeModule reading its blob from path.
func (r *Runtime) DeserializeModuleFromFile(path string) (*CompiledModule, error) {
	a, err := r.eng.DeserializeFromFile(path)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{rt: r, art: a}, nil
}

// Name returns the compiled module's metadata-only name.
func (m *CompiledModule) Name() string { return m.art.Name() }

// Serialize produces a blob DeserializeModule can later reconstruct this
// CompiledModule from, without recompiling.
func (m *CompiledModule) Serialize() ([]byte, error) { return m.art.Serialize() }

// Instantiate builds a new Instance of this CompiledModule, resolving its
// imports against the supplied ImportSet (see NewImportSet/HostModuleBuilder).
func (m *CompiledModule) Instantiate(imports *ImportSet) (*Instance, error) {
	var resolved *instance.Imports
	if imports != nil {
		resolved = imports.imports
	} else {
		resolved = instance.NewImports()
	}
	in, err := instance.Instantiate(m.art, resolved)
	if in == nil {
		return nil, err
	}
	return &Instance{in: in}, err
}

// Instance is one running incarnation of a CompiledModule.
type Instance struct {
	in *instance.Instance
}

// Call invokes the exported function name with args and returns its
// results, or the trap that aborted it.
func (i *Instance) Call(name string, args ...call.Value) ([]call.Value, error) {
	return i.in.Call(name, args)
}

// Export exposes the underlying Instance's export lookup, for embedders
// that need a Memory/Table/Global rather than a function.
func (i *Instance) Export(name string) (instance.Extern, bool) { return i.in.Export(name) }
