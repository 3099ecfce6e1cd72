package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDiff_FormattingOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.php", "<?php $a = $b + 2;")
	b := writeFile(t, dir, "b.php", "<?php\n\n// sum\n$a   =   $b\n  + 2;\n")

	var out bytes.Buffer

	err := runDiff(context.Background(), newTestEngine(t), a, b, diffFormatUnified, false, &out)
	require.NoError(t, err)
	assert.Equal(t, "No structural changes\n", out.String())
}

func TestRunDiff_Unified(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.php", "<?php $a = $b + 2;")
	b := writeFile(t, dir, "b.php", "<?php $a = $b - 2;")

	var out bytes.Buffer

	err := runDiff(context.Background(), newTestEngine(t), a, b, diffFormatUnified, false, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "--- "+a)
	assert.Contains(t, text, "+++ "+b)
	assert.Regexp(t, `(?m)^-\s+flags: BINARY_ADD`, text)
	assert.Regexp(t, `(?m)^\+\s+flags: BINARY_SUB`, text)
	assert.Contains(t, text, "\n AST_STMT_LIST\n")
}

func TestRunDiff_Summary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.php", "<?php $a;")
	b := writeFile(t, dir, "b.php", "<?php $a; $b;")

	var out bytes.Buffer

	err := runDiff(context.Background(), newTestEngine(t), a, b, diffFormatSummary, false, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "lines added, 0 lines removed")
}

func TestCountChangedLines(t *testing.T) {
	t.Parallel()

	added, removed := countChangedLines(lineDiff("a\nb\nc\n", "a\nc\nd\ne\n"))
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
}
