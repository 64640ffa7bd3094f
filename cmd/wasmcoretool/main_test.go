package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// addModuleJSON describes a module exporting a single function "add" that
// returns the sum of its two i32 parameters, in the jsonDecoder's input
// shape (a direct JSON rendering of artifact.Module).
const addModuleJSON = `{
	"Name": "add",
	"FunctionSignatures": [{"Params": [127, 127], "Results": [127]}],
	"Functions": [{
		"Signature": {"Params": [127, 127], "Results": [127]},
		"NumLocals": 2,
		"Code": [
			{"Op": 2, "Imm": 0},
			{"Op": 2, "Imm": 1},
			{"Op": 4, "Imm": 0}
		]
	}],
	"Exports": [{"Name": "add", "Kind": 0, "Index": 0}]
}`

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := run(&out, &errBuf, nil)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "wasmcoretool")
}

func TestRun_UnknownSubcommandFails(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := run(&out, &errBuf, []string{"bogus"})
	require.Equal(t, 1, code)
}
