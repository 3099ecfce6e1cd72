package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - php_ast: convert PHP source into the canonical AST (JSON or dump)
  - php_ast_kinds: list schema versions and handled syntax shapes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newRuntime(observability.ModeMCP)
			if err != nil {
				return err
			}
			defer env.shutdown()

			red, err := observability.NewREDMetrics(env.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  env.logger(),
				Metrics: red,
				Tracer:  env.providers.Tracer,
				Cache:   env.cache,
				Options: env.cfg.EngineOptions(nil),
			})

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}
