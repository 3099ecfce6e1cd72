package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/store"
)

var (
	ErrNoSourceFiles       = errors.New("no PHP files found")
	ErrUnsupportedParseFmt = errors.New("unsupported format")
)

// noOffset disables node selection.
const noOffset = -1

type parseOptions struct {
	format    string
	output    string
	offset    int
	all       bool
	workers   int
	progress  bool
	storePath string
}

// cmdIO carries the streams of the running command.
type cmdIO struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func streams(cmd *cobra.Command) cmdIO {
	return cmdIO{stdin: cmd.InOrStdin(), stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr()}
}

func parseCmd() *cobra.Command {
	opts := parseOptions{offset: noOffset}

	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "parse [files...|-]",
		Short: "Convert PHP files into the canonical AST",
		Long: `Convert PHP source files into the canonical php-ast tree.

Examples:
  phpast parse index.php                  # Convert a single file
  cat index.php | phpast parse -          # Convert stdin
  phpast parse -f tree index.php          # Indented dump
  phpast parse --schema 70 index.php      # Older php-ast shape
  phpast parse --offset 42 index.php      # Nodes built at byte 42
  phpast parse --all -f none --store .phpast.db
                                          # Precompute every file below .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}

			env, err := newRuntime(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer env.shutdown()

			if !cmd.Flags().Changed("workers") {
				opts.workers = env.cfg.Parse.Workers
			}

			if opts.storePath == "" {
				opts.storePath = env.cfg.Store.Path
			}

			conv, err := newFileConverter(env, flags.options(cmd), opts)
			if err != nil {
				return err
			}
			defer conv.close()

			ctx, span := env.providers.Tracer.Start(cmd.Context(), "cli.parse")
			defer span.End()

			return runParse(ctx, conv, args, opts, streams(cmd))
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "output format (json, compact, yaml, tree, none)")
	cmd.Flags().IntVar(&opts.offset, "offset", noOffset, "print only the nodes built at this byte offset")
	cmd.Flags().BoolVar(&opts.all, "all", false, "convert every PHP file below the given directories (default .)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().BoolVarP(&opts.progress, "progress", "p", false, "show progress for multiple files")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "result store file reused across runs")
	flags.register(cmd)

	return cmd
}

func newFileConverter(env *runtimeEnv, overrides []phpast.Option, opts parseOptions) (*fileConverter, error) {
	engine, err := env.engine(overrides...)
	if err != nil {
		return nil, err
	}

	conv := &fileConverter{
		engine: engine,
		format: opts.format,
		offset: opts.offset,
		color:  opts.output == "",
		logger: env.logger(),
	}

	if opts.storePath == "" {
		return conv, nil
	}

	conv.maxStored, err = env.cfg.Store.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	conv.store, err = store.Open(opts.storePath)
	if err != nil {
		return nil, err
	}

	return conv, nil
}

func runParse(ctx context.Context, conv *fileConverter, args []string, opts parseOptions, stdio cmdIO) error {
	files := args

	if opts.all {
		var err error

		files, err = collectAll(args)
		if err != nil {
			return err
		}
	}

	if len(files) == 0 {
		files = []string{stdinPath}
	}

	writer := stdio.stdout

	if opts.output != "" {
		outputFile, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer outputFile.Close()

		writer = outputFile
	}

	var progress io.Writer
	if opts.progress && !quiet && len(files) > 1 {
		progress = stdio.stderr
		fmt.Fprintf(progress, "Converting %d files...\n", len(files))
	}

	results, err := convertParallel(ctx, conv, files, opts.workers, stdio.stdin, progress)
	if err != nil {
		return err
	}

	return writeResults(writer, stdio.stderr, results, opts.format)
}

type indexedFile struct {
	index int
	path  string
}

// convertParallel converts files on a worker pool and returns the results in
// input order. The engine is shared; every conversion gets its own context.
// The first failure in input order is returned.
func convertParallel(
	ctx context.Context,
	conv *fileConverter,
	files []string,
	workers int,
	stdin io.Reader,
	progress io.Writer,
) ([]*convertedFile, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = min(workers, len(files))

	results := make([]*convertedFile, len(files))
	errs := make([]error, len(files))

	fileCh := make(chan indexedFile, workers)

	var (
		failed    atomic.Bool
		completed atomic.Int64
		progMu    sync.Mutex
		wg        sync.WaitGroup
	)

	total := int64(len(files))

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// Keep draining after a failure so the producer never blocks.
			for item := range fileCh {
				if failed.Load() {
					continue
				}

				if err := ctx.Err(); err != nil {
					errs[item.index] = err
					failed.Store(true)

					continue
				}

				res, err := conv.convertPath(ctx, item.path, stdin)
				if err != nil {
					errs[item.index] = fmt.Errorf("failed to convert %s: %w", item.path, err)
					failed.Store(true)

					continue
				}

				results[item.index] = res

				done := completed.Add(1)
				if progress != nil {
					progMu.Lock()
					fmt.Fprintf(progress, "[%d/%d] %s\n", done, total, item.path)
					progMu.Unlock()
				}
			}
		}()
	}

	for i, f := range files {
		if failed.Load() {
			break
		}

		fileCh <- indexedFile{index: i, path: f}
	}

	close(fileCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// writeResults writes rendered files in input order, separating multi-file
// output per format, and reports diagnostics on stderr.
func writeResults(writer, diagWriter io.Writer, results []*convertedFile, format string) error {
	multi := len(results) > 1

	for i, res := range results {
		if !quiet {
			printDiagnostics(diagWriter, res.label, res.src, res.diagnostics)
		}

		if len(res.rendered) == 0 {
			continue
		}

		if multi {
			switch format {
			case formatYAML:
				if i > 0 {
					fmt.Fprintln(writer, "---")
				}
			case formatTree:
				fmt.Fprintf(writer, "# %s\n", res.label)
			}
		}

		if _, err := writer.Write(res.rendered); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}
