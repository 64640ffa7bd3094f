// Command wasmcoretool is a small CLI wrapper around the wasmcore runtime,
// grounded on wazero's cmd/wazero but rebuilt on cobra rather than stdlib
// flag: compile, inspect, and run a module described as JSON (see
// jsondecoder.go for why JSON, not real Wasm binaries).
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Stdout, os.Stderr, os.Args[1:]))
}

// run is separated from main for testability: tests call it directly with
// buffers in place of os.Stdout/os.Stderr, mirroring the teacher's
// doMain(stdOut, stdErr) split.
func run(stdout, stderr io.Writer, args []string) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "wasmcoretool",
		Short:         "Compile, inspect, and run wasmcore artifacts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newCompileCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newRunCmd())
	return root
}
