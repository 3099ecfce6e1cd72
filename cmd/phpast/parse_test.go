package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/store"
)

func testIO(stdin string) (cmdIO, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	return cmdIO{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func TestRunParse_Stdin(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, formatJSON)
	stdio, stdout, _ := testIO("<?php echo 1;")

	err := runParse(context.Background(), conv, nil, parseOptions{format: formatJSON, offset: noOffset}, stdio)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, "AST_STMT_LIST", doc["kind"])
	assert.Contains(t, stdout.String(), `"kind": "AST_ECHO"`)
}

func TestRunParse_ParallelKeepsInputOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	const count = 6

	files := make([]string, 0, count)
	for i := range count {
		files = append(files, writeFile(t, dir, fmt.Sprintf("f%d.php", i), fmt.Sprintf("<?php echo %d;", i)))
	}

	conv := newTestConverter(t, formatCompact)
	stdio, stdout, _ := testIO("")

	err := runParse(context.Background(), conv, files, parseOptions{format: formatCompact, offset: noOffset, workers: 3}, stdio)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, count)

	for i, line := range lines {
		assert.Contains(t, line, fmt.Sprintf(`"expr":%d`, i))
	}
}

func TestRunParse_TreeHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.php", "<?php $a;")
	b := writeFile(t, dir, "b.php", "<?php $b;")

	conv := newTestConverter(t, formatTree)
	stdio, stdout, _ := testIO("")

	err := runParse(context.Background(), conv, []string{a, b}, parseOptions{format: formatTree, offset: noOffset}, stdio)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "# "+a)
	assert.Contains(t, out, "# "+b)
	assert.Less(t, strings.Index(out, "# "+a), strings.Index(out, "# "+b))
	assert.Contains(t, out, "AST_VAR")
}

func TestRunParse_MissingFile(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, formatNone)
	stdio, _, _ := testIO("")

	missing := filepath.Join(t.TempDir(), "missing.php")

	err := runParse(context.Background(), conv, []string{missing}, parseOptions{format: formatNone, offset: noOffset}, stdio)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.php")
}

func TestRunParse_OutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.yaml")

	conv := newTestConverter(t, formatYAML)
	stdio, stdout, _ := testIO("<?php $a;")

	err := runParse(context.Background(), conv, nil, parseOptions{format: formatYAML, offset: noOffset, output: out}, stdio)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.FileExists(t, out)
}

func TestFileConverter_Offset(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, formatCompact)
	conv.offset = strings.Index("<?php\n$a->foo;", "foo") + 1

	res, err := conv.convert(context.Background(), "stdin", []byte("<?php\n$a->foo;"))
	require.NoError(t, err)

	var selected []map[string]any
	require.NoError(t, json.Unmarshal(res.rendered, &selected))
	require.NotEmpty(t, selected)
	assert.Equal(t, "AST_PROP", selected[0]["kind"])
}

func TestFileConverter_Store(t *testing.T) {
	t.Parallel()

	db, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)

	conv := newTestConverter(t, formatCompact)
	conv.engine = newTestEngine(t, phpast.WithPlaceholders(true))
	conv.store = db
	conv.maxStored = 1 << 20

	t.Cleanup(conv.close)

	src := []byte("<?php\n$a = ;\necho 1;")

	first, err := conv.convert(context.Background(), "a.php", src)
	require.NoError(t, err)
	assert.False(t, first.stored)

	second, err := conv.convert(context.Background(), "a.php", src)
	require.NoError(t, err)
	assert.True(t, second.stored)
	assert.Equal(t, first.rendered, second.rendered)
	assert.Equal(t, first.diagnostics, second.diagnostics)

	n, err := db.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileConverter_StoreSkipsLargeFiles(t *testing.T) {
	t.Parallel()

	db, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)

	conv := newTestConverter(t, formatNone)
	conv.store = db
	conv.maxStored = 4

	t.Cleanup(conv.close)

	res, err := conv.convert(context.Background(), "a.php", []byte("<?php echo 1;"))
	require.NoError(t, err)
	assert.False(t, res.stored)
	assert.Empty(t, res.rendered)

	n, err := db.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRender(t *testing.T) {
	t.Parallel()

	conv := newTestConverter(t, formatJSON)

	res, err := conv.engine.Convert(context.Background(), []byte("<?php $a;"))
	require.NoError(t, err)

	for _, format := range []string{formatJSON, formatCompact, formatYAML, formatTree} {
		out, err := render(res.Root, format, false)
		require.NoError(t, err, format)
		assert.Contains(t, string(out), "AST_VAR", format)
	}

	out, err := render(res.Root, formatNone, false)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = render(res.Root, "xml", false)
	require.ErrorIs(t, err, ErrUnsupportedParseFmt)
	require.ErrorIs(t, checkFormat("xml"), ErrUnsupportedParseFmt)
	require.NoError(t, checkFormat(formatTree))
}

func TestPrintDiagnostics(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, phpast.WithPlaceholders(true))
	src := []byte("<?php\n$a = ;\n")

	res, err := engine.Convert(context.Background(), src)
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)

	var buf bytes.Buffer

	printDiagnostics(&buf, "a.php", src, res.Diagnostics)
	assert.Contains(t, buf.String(), "a.php:2:")
}
