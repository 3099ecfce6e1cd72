package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

// diffArgCount is the number of arguments expected by the diff command.
const diffArgCount = 2

const (
	diffFormatUnified = "unified"
	diffFormatSummary = "summary"
)

// ErrUnsupportedDiffFmt is returned for an unknown --format value.
var ErrUnsupportedDiffFmt = errors.New("unsupported format")

func diffCmd() *cobra.Command {
	var format string

	var lines bool

	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "diff file1 file2",
		Short: "Compare the canonical trees of two files",
		Long: `Compare two PHP files by their canonical AST dumps. Formatting and
comment-only edits produce no difference.

Examples:
  phpast diff old.php new.php
  phpast diff -f summary old.php new.php
  phpast diff --lines old.php new.php     # Also report moved lines`,
		Args: cobra.ExactArgs(diffArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != diffFormatUnified && format != diffFormatSummary {
				return fmt.Errorf("%w: %s", ErrUnsupportedDiffFmt, format)
			}

			env, err := newRuntime(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer env.shutdown()

			engine, err := env.engine(flags.options(cmd)...)
			if err != nil {
				return err
			}

			return runDiff(cmd.Context(), engine, args[0], args[1], format, lines, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", diffFormatUnified, "output format (unified, summary)")
	cmd.Flags().BoolVar(&lines, "lines", false, "compare line numbers too")
	flags.register(cmd)

	return cmd
}

func runDiff(ctx context.Context, engine *phpast.Engine, file1, file2, format string, lines bool, writer io.Writer) error {
	root1, err := convertFile(ctx, engine, file1)
	if err != nil {
		return err
	}

	root2, err := convertFile(ctx, engine, file2)
	if err != nil {
		return err
	}

	if !lines && ast.Equal(root1, root2) {
		fmt.Fprintln(writer, "No structural changes")

		return nil
	}

	var opts []ast.DumpOption
	if !lines {
		opts = append(opts, ast.WithoutLines())
	}

	diffs := lineDiff(ast.Dump(root1, opts...), ast.Dump(root2, opts...))

	if format == diffFormatSummary {
		added, removed := countChangedLines(diffs)
		fmt.Fprintf(writer, "%s -> %s: %d lines added, %d lines removed\n", file1, file2, added, removed)

		return nil
	}

	writeUnified(writer, file1, file2, diffs)

	return nil
}

func convertFile(ctx context.Context, engine *phpast.Engine, path string) (*ast.Node, error) {
	src, _, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	res, err := engine.Convert(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", path, err)
	}

	return res.Root, nil
}

// lineDiff diffs two texts line by line.
func lineDiff(text1, text2 string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()

	chars1, chars2, lineArray := dmp.DiffLinesToChars(text1, text2)
	diffs := dmp.DiffMain(chars1, chars2, false)

	return dmp.DiffCharsToLines(diffs, lineArray)
}

func countChangedLines(diffs []diffmatchpatch.Diff) (added, removed int) {
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		case diffmatchpatch.DiffEqual:
		}
	}

	return added, removed
}

// writeUnified prints every dump line prefixed with ' ', '-' or '+'.
func writeUnified(writer io.Writer, file1, file2 string, diffs []diffmatchpatch.Diff) {
	fmt.Fprintf(writer, "--- %s\n+++ %s\n", file1, file2)

	for _, d := range diffs {
		prefix := " "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			fmt.Fprintf(writer, "%s%s\n", prefix, line)
		}
	}
}
