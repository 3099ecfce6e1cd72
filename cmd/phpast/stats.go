package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

// percentScale turns a share into a percentage.
const percentScale = 100

// treeStats aggregates conversions of one or more files.
type treeStats struct {
	files        int
	bytes        uint64
	nodes        int
	diagnostics  int
	stubs        int
	placeholders int
	elapsed      time.Duration
	kinds        map[ast.Kind]int
}

type kindCount struct {
	kind  ast.Kind
	count int
}

func statsCmd() *cobra.Command {
	var top int

	var all bool

	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "stats [files...]",
		Short: "Show the node kind histogram of PHP files",
		Long: `Convert PHP files and print how often every node kind occurs.

Examples:
  phpast stats index.php
  phpast stats --all --top 15 src`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newRuntime(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer env.shutdown()

			engine, err := env.engine(flags.options(cmd)...)
			if err != nil {
				return err
			}

			files := args

			if all {
				files, err = collectAll(args)
				if err != nil {
					return err
				}
			}

			if len(files) == 0 {
				files = []string{stdinPath}
			}

			stats, err := collectStats(cmd.Context(), engine, files, cmd.InOrStdin())
			if err != nil {
				return err
			}

			writeStats(cmd.OutOrStdout(), stats, top)

			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "show only the most frequent kinds (0 = all)")
	cmd.Flags().BoolVar(&all, "all", false, "include every PHP file below the given directories (default .)")
	flags.register(cmd)

	return cmd
}

// collectAll expands directory roots into PHP files.
func collectAll(roots []string) ([]string, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var files []string

	for _, root := range roots {
		found, err := collectPHPFiles(root)
		if err != nil {
			return nil, fmt.Errorf("failed to collect source files: %w", err)
		}

		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}

	return files, nil
}

func collectStats(ctx context.Context, engine *phpast.Engine, files []string, stdin io.Reader) (*treeStats, error) {
	stats := &treeStats{kinds: make(map[ast.Kind]int)}

	for _, file := range files {
		src, label, err := readSource(file, stdin)
		if err != nil {
			return nil, err
		}

		start := time.Now()

		res, err := engine.Convert(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", label, err)
		}

		stats.elapsed += time.Since(start)
		stats.files++
		stats.bytes += uint64(len(src))
		stats.diagnostics += len(res.Diagnostics)
		stats.stubs += res.Stubs
		stats.placeholders += res.Placeholders

		for kind, n := range ast.Histogram(res.Root) {
			stats.kinds[kind] += n
			stats.nodes += n
		}
	}

	return stats, nil
}

// sortedKinds orders kinds by descending count, then by name.
func (s *treeStats) sortedKinds() []kindCount {
	counts := make([]kindCount, 0, len(s.kinds))
	for kind, n := range s.kinds {
		counts = append(counts, kindCount{kind: kind, count: n})
	}

	slices.SortFunc(counts, func(a, b kindCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}

		return cmp.Compare(a.kind, b.kind)
	})

	return counts
}

func writeStats(writer io.Writer, stats *treeStats, top int) {
	counts := stats.sortedKinds()
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(writer)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	tbl.AppendHeader(table.Row{"Kind", "Count", "Share"})

	for _, kc := range counts {
		share := 0.0
		if stats.nodes > 0 {
			share = float64(kc.count) / float64(stats.nodes) * percentScale
		}

		tbl.AppendRow(table.Row{string(kc.kind), humanize.Comma(int64(kc.count)), fmt.Sprintf("%.1f%%", share)})
	}

	tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(stats.nodes)), ""})
	tbl.Render()

	fmt.Fprintf(writer, "\n%d files, %s, %d kinds, %d diagnostics, %d stubs, %d placeholders, converted in %s\n",
		stats.files, humanize.Bytes(stats.bytes), len(stats.kinds),
		stats.diagnostics, stats.stubs, stats.placeholders, stats.elapsed.Round(time.Millisecond))
}
