package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/call"
)

// parseArgs turns a comma-separated list of "type:value" tokens (e.g.
// "i32:3,f64:1.5") into the shared argument buffer Instance.Call expects,
// validating each token's type against sig's declared parameters.
func parseArgs(sig api.FuncType, raw []string) ([]call.Value, error) {
	if len(raw) != len(sig.Params) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(sig.Params), len(raw))
	}
	out := make([]call.Value, len(raw))
	for i, tok := range raw {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("argument %q: want TYPE:VALUE", tok)
		}
		typ, val := parts[0], parts[1]
		want := api.ValueTypeName(sig.Params[i])
		if typ != want {
			return nil, fmt.Errorf("argument %d: module expects %s, got %s", i, want, typ)
		}
		v, err := parseValue(sig.Params[i], val)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseValue(t api.ValueType, s string) (call.Value, error) {
	switch t {
	case api.ValueTypeI32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return call.Value{}, err
		}
		return call.I32(uint32(n)), nil
	case api.ValueTypeI64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return call.Value{}, err
		}
		return call.I64(uint64(n)), nil
	case api.ValueTypeF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return call.Value{}, err
		}
		return call.F32(float32(f)), nil
	case api.ValueTypeF64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return call.Value{}, err
		}
		return call.F64(f), nil
	default:
		return call.Value{}, fmt.Errorf("unsupported argument type %s", api.ValueTypeName(t))
	}
}

// formatResults renders results according to sig's declared result types as
// "type:value" tokens, the same shape parseArgs accepts.
func formatResults(sig api.FuncType, results []call.Value) []string {
	out := make([]string, len(results))
	for i, v := range results {
		t := sig.Results[i]
		switch t {
		case api.ValueTypeI32:
			out[i] = fmt.Sprintf("i32:%d", call.AsI32(v))
		case api.ValueTypeI64:
			out[i] = fmt.Sprintf("i64:%d", call.AsI64(v))
		case api.ValueTypeF32:
			out[i] = fmt.Sprintf("f32:%g", call.AsF32(v))
		case api.ValueTypeF64:
			out[i] = fmt.Sprintf("f64:%g", call.AsF64(v))
		default:
			out[i] = fmt.Sprintf("%s:<unrepresentable>", api.ValueTypeName(t))
		}
	}
	return out
}
