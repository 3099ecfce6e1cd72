package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

func dumpCmd() *cobra.Command {
	var colorize, nocolor, noLines bool

	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "dump [file|-]",
		Short: "Print the canonical AST as an indented tree",
		Long: `Print the canonical AST in the php-ast util.php dump style.

Examples:
  phpast dump index.php
  phpast dump --no-lines --schema 70 index.php`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setColor(colorize, nocolor)

			env, err := newRuntime(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer env.shutdown()

			engine, err := env.engine(flags.options(cmd)...)
			if err != nil {
				return err
			}

			path := stdinPath
			if len(args) == 1 {
				path = args[0]
			}

			return runDump(cmd.Context(), engine, path, !noLines, streams(cmd))
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&noLines, "no-lines", false, "omit line numbers")
	flags.register(cmd)

	return cmd
}

func runDump(ctx context.Context, engine *phpast.Engine, path string, lines bool, stdio cmdIO) error {
	src, label, err := readSource(path, stdio.stdin)
	if err != nil {
		return err
	}

	res, err := engine.Convert(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", label, err)
	}

	if !quiet {
		printDiagnostics(stdio.stderr, label, src, res.Diagnostics)
	}

	var opts []ast.DumpOption
	if !color.NoColor {
		opts = append(opts, ast.WithColor())
	}

	if !lines {
		opts = append(opts, ast.WithoutLines())
	}

	_, err = io.WriteString(stdio.stdout, ast.Dump(res.Root, opts...))

	return err
}

// setColor applies --color/--no-color over fatih/color's terminal detection.
func setColor(colorize, nocolor bool) {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}
}
