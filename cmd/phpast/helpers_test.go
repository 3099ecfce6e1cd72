package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
)

func newTestEngine(t *testing.T, opts ...phpast.Option) *phpast.Engine {
	t.Helper()

	engine, err := phpast.New(opts...)
	require.NoError(t, err)

	return engine
}

func newTestConverter(t *testing.T, format string) *fileConverter {
	t.Helper()

	return &fileConverter{
		engine: newTestEngine(t),
		format: format,
		offset: noOffset,
		logger: slog.New(slog.DiscardHandler),
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
