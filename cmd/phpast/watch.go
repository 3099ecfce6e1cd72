package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

// defaultDebounce absorbs the bursts of writes editors emit per save.
const defaultDebounce = 50 * time.Millisecond

func watchCmd() *cobra.Command {
	var storePath string

	var debounce time.Duration

	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Convert PHP files whenever they change",
		Long: `Watch a directory tree and convert every PHP file that is written.
Conversions share one parse cache; with --store unchanged content is served
from the result store.

Examples:
  phpast watch src
  phpast watch --store .phpast.db .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			env, err := newRuntime(observability.ModeCLI)
			if err != nil {
				return err
			}
			defer env.shutdown()

			if storePath == "" {
				storePath = env.cfg.Store.Path
			}

			conv, err := newFileConverter(env, flags.options(cmd), parseOptions{
				format:    formatNone,
				offset:    noOffset,
				storePath: storePath,
			})
			if err != nil {
				return err
			}
			defer conv.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := newPHPWatcher(root, debounce)
			if err != nil {
				return err
			}

			env.logger().Info("watching for changes", "root", root)

			return watcher.run(ctx, func(path string) {
				reportChange(ctx, conv, path, streams(cmd), env.logger())
			})
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "result store file reused across runs")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "ignore repeated events for a file within this window")
	flags.register(cmd)

	return cmd
}

// phpWatcher watches a directory tree recursively and reports PHP files that
// were created or written.
type phpWatcher struct {
	fw       *fsnotify.Watcher
	root     string
	debounce time.Duration
	last     map[string]time.Time
}

func newPHPWatcher(root string, debounce time.Duration) (*phpWatcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &phpWatcher{fw: fw, root: absRoot, debounce: debounce, last: make(map[string]time.Time)}

	if err := w.addTree(absRoot); err != nil {
		fw.Close()

		return nil, err
	}

	return w, nil
}

// addTree watches dir and its subdirectories, skipping hidden and vendored ones.
func (w *phpWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			return nil //nolint:nilerr // skip inaccessible paths
		}

		if !entry.IsDir() {
			return nil
		}

		if path != w.root && w.ignoredDir(path) {
			return filepath.SkipDir
		}

		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}

func (w *phpWatcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(rel)
}

func (w *phpWatcher) ignoredDir(path string) bool {
	return isHiddenDir(filepath.Base(path)) || enry.IsVendor(w.rel(path)+"/")
}

// run delivers changes until ctx is done, then closes the watcher.
func (w *phpWatcher) run(ctx context.Context, onChange func(path string)) error {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}

			w.handle(event, onChange)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}

			if errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.Default().Warn("watch events dropped", "error", err)

				continue
			}

			return fmt.Errorf("watch: %w", err)
		}
	}
}

func (w *phpWatcher) handle(event fsnotify.Event, onChange func(path string)) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.ignoredDir(event.Name) {
			// The directory may already be gone.
			_ = w.addTree(event.Name)
		}

		return
	}

	if !isPHPFile(event.Name, w.rel(event.Name)) {
		return
	}

	now := time.Now()
	if last, seen := w.last[event.Name]; seen && now.Sub(last) < w.debounce {
		return
	}

	w.last[event.Name] = now

	onChange(event.Name)
}

func reportChange(ctx context.Context, conv *fileConverter, path string, stdio cmdIO, logger *slog.Logger) {
	start := time.Now()

	res, err := conv.convertPath(ctx, path, nil)
	if err != nil {
		logger.Error("conversion failed", "path", path, "error", err)

		return
	}

	writeChange(stdio.stdout, res, time.Since(start))

	if !quiet {
		printDiagnostics(stdio.stderr, res.label, res.src, res.diagnostics)
	}
}

func writeChange(w io.Writer, res *convertedFile, elapsed time.Duration) {
	source := "converted"
	if res.stored {
		source = "stored"
	}

	fmt.Fprintf(w, "%s: %s, %d diagnostics (%s)\n",
		res.label, source, len(res.diagnostics), elapsed.Round(time.Microsecond))
}
