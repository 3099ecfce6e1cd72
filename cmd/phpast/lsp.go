package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/lsp"
)

func lspCmd() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the PHP language server (LSP)",
		Long: `Start a language server on stdio that publishes parser diagnostics and
shows the canonical nodes under the cursor on hover. Placeholders are on
unless --placeholders=false is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntime(observability.ModeLSP)
			if err != nil {
				return err
			}
			defer env.shutdown()

			opts := env.engineOptions(phpast.WithPlaceholders(true))

			srv, err := lsp.NewServer(append(opts, flags.options(cmd)...)...)
			if err != nil {
				return err
			}

			srv.Run()

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
