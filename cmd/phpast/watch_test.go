package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, dir string, debounce time.Duration) *phpWatcher {
	t.Helper()

	w, err := newPHPWatcher(dir, debounce)
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.fw.Close() })

	return w
}

func TestPHPWatcher_FiltersEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	php := writeFile(t, dir, "src/a.php", "<?php echo 1;")
	md := writeFile(t, dir, "README.md", "# readme")
	vendored := writeFile(t, dir, "vendor/lib.php", "<?php echo 2;")

	w := newTestWatcher(t, dir, time.Hour)

	var changed []string

	record := func(path string) { changed = append(changed, path) }

	w.handle(fsnotify.Event{Name: php, Op: fsnotify.Write}, record)
	w.handle(fsnotify.Event{Name: php, Op: fsnotify.Write}, record)
	w.handle(fsnotify.Event{Name: md, Op: fsnotify.Write}, record)
	w.handle(fsnotify.Event{Name: vendored, Op: fsnotify.Create}, record)
	w.handle(fsnotify.Event{Name: php, Op: fsnotify.Chmod}, record)
	w.handle(fsnotify.Event{Name: filepath.Join(dir, "gone.php"), Op: fsnotify.Write}, record)

	assert.Equal(t, []string{php}, changed)
}

func TestPHPWatcher_WatchesNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir, 0)

	sub := filepath.Join(dir, "lib")
	writeFile(t, dir, "lib/b.php", "<?php")

	w.handle(fsnotify.Event{Name: sub, Op: fsnotify.Create}, func(string) {})

	assert.Contains(t, w.fw.WatchList(), sub)
}

func TestWriteChange(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	writeChange(&out, &convertedFile{label: "a.php", stored: true}, time.Millisecond)
	assert.Equal(t, "a.php: stored, 0 diagnostics (1ms)\n", out.String())
}
