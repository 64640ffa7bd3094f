package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmcore/runtime/internal/engine"
)

func newCompileCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "compile <module.json>",
		Short: "Compile a JSON module description into a wasmcore artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("compile: -o output path is required")
			}

			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("compile: read %s: %w", args[0], err)
			}

			e := engine.New(engine.NewConfig().WithDecoder(jsonDecoder{}))
			a, err := e.Compile(src)
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}

			blob, err := a.Serialize()
			if err != nil {
				return fmt.Errorf("compile: serialize: %w", err)
			}
			if err := os.WriteFile(out, blob, 0o644); err != nil {
				return fmt.Errorf("compile: write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "compiled %q -> %s (%d byte(s))\n", a.Name(), out, len(blob))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path for the compiled artifact")
	return cmd
}
