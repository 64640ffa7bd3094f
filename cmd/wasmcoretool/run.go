package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmcore/runtime/api"
	"github.com/wasmcore/runtime/internal/engine"
	"github.com/wasmcore/runtime/internal/instance"
)

func newRunCmd() *cobra.Command {
	var invoke string
	var argsCSV string

	cmd := &cobra.Command{
		Use:   "run <artifact.wcore>",
		Short: "Instantiate a compiled artifact and invoke one of its exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if invoke == "" {
				return fmt.Errorf("run: --invoke <export name> is required")
			}

			e := engine.Headless()
			a, err := e.DeserializeFromFile(args[0])
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			in, err := instance.Instantiate(a, instance.NewImports())
			if err != nil {
				return fmt.Errorf("run: instantiate: %w", err)
			}

			ext, ok := in.Export(invoke)
			if !ok || ext.Kind != api.ExternTypeFunc {
				return fmt.Errorf("run: no exported function %q", invoke)
			}

			var rawArgs []string
			if argsCSV != "" {
				rawArgs = strings.Split(argsCSV, ",")
			}
			callArgs, err := parseArgs(ext.FuncSignature, rawArgs)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			results, err := in.Call(invoke, callArgs)
			if err != nil {
				return fmt.Errorf("run: %s trapped: %w", invoke, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(formatResults(ext.FuncSignature, results), ","))
			return nil
		},
	}

	cmd.Flags().StringVar(&invoke, "invoke", "", "name of the exported function to call")
	cmd.Flags().StringVar(&argsCSV, "args", "", "comma-separated TYPE:VALUE arguments, e.g. i32:3,i32:4")
	return cmd
}
