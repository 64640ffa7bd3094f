package main

import (
	"encoding/json"
	"fmt"

	"github.com/wasmcore/runtime/internal/artifact"
)

// jsonDecoder implements engine.Decoder by json.Unmarshaling straight into
// an artifact.Module. wasmcore does not ship a WebAssembly binary decoder
// (spec.md §6 places the parser outside this core's boundary); this is the
// stand-in the CLI uses so `compile` has a real Decoder to exercise
// Engine.Compile end-to-end, not a substitute for one.
type jsonDecoder struct{}

func (jsonDecoder) Decode(wasmBytes []byte) (*artifact.Module, error) {
	var m artifact.Module
	if err := json.Unmarshal(wasmBytes, &m); err != nil {
		return nil, fmt.Errorf("wasmcoretool: decode module description: %w", err)
	}
	return &m, nil
}
