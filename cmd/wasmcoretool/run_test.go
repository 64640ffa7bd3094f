package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCmd_InvokesExportAndPrintsResult(t *testing.T) {
	artifactPath := compileFixture(t)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"run", artifactPath, "--invoke", "add", "--args", "i32:3,i32:4"})
	require.Equal(t, 0, code)
	require.Equal(t, "i32:7", strings.TrimSpace(stdout.String()))
}

func TestRunCmd_UnknownExportFails(t *testing.T) {
	artifactPath := compileFixture(t)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"run", artifactPath, "--invoke", "missing"})
	require.Equal(t, 1, code)
}

func TestRunCmd_MissingInvokeFlagFails(t *testing.T) {
	artifactPath := compileFixture(t)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"run", artifactPath})
	require.Equal(t, 1, code)
}

func TestRunCmd_WrongArgCountFails(t *testing.T) {
	artifactPath := compileFixture(t)

	var stdout, stderr bytes.Buffer
	code := run(&stdout, &stderr, []string{"run", artifactPath, "--invoke", "add", "--args", "i32:3"})
	require.Equal(t, 1, code)
}
