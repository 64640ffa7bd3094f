package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/artifact"
	"github.com/wasmcore/runtime/internal/engine"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <artifact.wcore>",
		Short: "Print the imports, exports, and signatures of a compiled artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := engine.Headless()
			a, err := e.DeserializeFromFile(args[0])
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name: %s\n", a.Name())

			fmt.Fprintf(out, "signatures (%d):\n", len(a.Module.FunctionSignatures))
			for i, sig := range a.Module.FunctionSignatures {
				fmt.Fprintf(out, "  [%d] %s\n", i, sig)
			}

			fmt.Fprintf(out, "imports (%d):\n", len(a.Imports()))
			for _, imp := range a.Imports() {
				fmt.Fprintf(out, "  %s.%s: %s\n", imp.Namespace, imp.Name, importKindName(imp.Kind))
			}

			fmt.Fprintf(out, "exports (%d):\n", len(a.Exports()))
			for _, exp := range a.Exports() {
				fmt.Fprintf(out, "  %s: %s[%d]\n", exp.Name, api.ExternTypeName(exp.Kind), exp.Index)
			}

			region := a.Region()
			fmt.Fprintf(out, "code memory: %d function bod(ies)\n", len(region.Bodies))
			return nil
		},
	}
	return cmd
}

func importKindName(k artifact.ImportKind) string {
	switch k {
	case artifact.ImportFunc:
		return "func"
	case artifact.ImportMemory:
		return "memory"
	case artifact.ImportTable:
		return "table"
	case artifact.ImportGlobal:
		return "global"
	default:
		return "unknown"
	}
}
