package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileCmd_WritesArtifact(t *testing.T) {
	src := writeTempFile(t, "add.json", addModuleJSON)
	out := filepath.Join(t.TempDir(), "add.wcore")

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"compile", src, "-o", out})
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "compiled")

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NotEmpty(t, blob)
}

func TestCompileCmd_MissingOutputFlagFails(t *testing.T) {
	src := writeTempFile(t, "add.json", addModuleJSON)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"compile", src})
	require.Equal(t, 1, code)
}

func TestCompileCmd_MalformedJSONFails(t *testing.T) {
	src := writeTempFile(t, "bad.json", "not json")
	out := filepath.Join(t.TempDir(), "bad.wcore")

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"compile", src, "-o", out})
	require.Equal(t, 1, code)
}
