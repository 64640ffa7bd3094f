package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func compileFixture(t *testing.T) string {
	t.Helper()
	src := writeTempFile(t, "add.json", addModuleJSON)
	out := filepath.Join(t.TempDir(), "add.wcore")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(&stdout, &stderr, []string{"compile", src, "-o", out}))
	return out
}

func TestInspectCmd_PrintsSummary(t *testing.T) {
	artifactPath := compileFixture(t)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"inspect", artifactPath})
	require.Equal(t, 0, code)

	got := stdout.String()
	require.Contains(t, got, "name: add")
	require.Contains(t, got, "add: func[0]")
	require.Contains(t, got, "signatures (1):")
}

func TestInspectCmd_MissingFileFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"inspect", "/nonexistent/path.wcore"})
	require.Equal(t, 1, code)
}
