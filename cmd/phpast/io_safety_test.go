package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUserFilePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "a.php", "<?php")

	resolved, err := resolveUserFilePath(file)
	require.NoError(t, err)
	assert.Equal(t, file, resolved)

	_, err = resolveUserFilePath("  ")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = resolveUserFilePath("a\x00b")
	require.ErrorIs(t, err, ErrPathContainsNUL)

	_, err = resolveUserFilePath(dir)
	require.ErrorIs(t, err, ErrDirectoryPath)
}

func TestReadSource_Stdin(t *testing.T) {
	t.Parallel()

	content, label, err := readSource(stdinPath, strings.NewReader("<?php echo 1;"))
	require.NoError(t, err)
	assert.Equal(t, "stdin", label)
	assert.Equal(t, "<?php echo 1;", string(content))
}

func TestSanitizeForTerminal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b&lt;c", sanitizeForTerminal("a\nb<c\x1b"))
}
