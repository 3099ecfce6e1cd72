package store_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/store"
)

func openStore(t *testing.T) (*store.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "results.db")

	st, err := store.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	return st, path
}

func TestKey(t *testing.T) {
	t.Parallel()

	src := []byte("<?php echo 1;")
	base := store.Key(src, ast.Version85, false)

	assert.Len(t, base, 64)
	assert.Equal(t, base, store.Key(src, ast.Version85, false))
	assert.NotEqual(t, base, store.Key(src, ast.Version80, false))
	assert.NotEqual(t, base, store.Key(src, ast.Version85, true))
	assert.NotEqual(t, base, store.Key([]byte("<?php echo 2;"), ast.Version85, false))
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	st, path := openStore(t)
	assert.Equal(t, path, st.Path())

	tests := []struct {
		name  string
		value []byte
	}{
		{"empty", []byte{}},
		{"short", []byte(`{"kind":"AST_STMT_LIST"}`)},
		{"compressible", bytes.Repeat([]byte(`{"kind":"AST_VAR","children":{"name":"a"}},`), 200)},
		{"binary", []byte{0, 1, 2, 3, 250, 251, 252, 253, 254, 255}},
	}

	for _, tt := range tests {
		require.NoError(t, st.Put(tt.name, tt.value))

		got, ok, err := st.Get(tt.name)
		require.NoError(t, err, tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.value, got, tt.name)
	}

	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, len(tests), n)
}

func TestStore_Missing(t *testing.T) {
	t.Parallel()

	st, _ := openStore(t)

	got, ok, err := st.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_ReplaceAndDelete(t *testing.T) {
	t.Parallel()

	st, _ := openStore(t)

	require.NoError(t, st.Put("k", []byte("one")))
	require.NoError(t, st.Put("k", []byte("two")))

	got, _, err := st.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, st.Delete("k"))
	require.NoError(t, st.Delete("k"))

	_, ok, err := st.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")

	st, err := store.Open(path)
	require.NoError(t, err)

	value := bytes.Repeat([]byte("AST_ECHO "), 100)
	require.NoError(t, st.Put("k", value))
	require.NoError(t, st.Close())

	reopened, err := store.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	got, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()

	st, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, _, err = st.Get("k")
	require.ErrorIs(t, err, store.ErrClosed)

	err = st.Put("k", []byte("v"))
	require.ErrorIs(t, err, store.ErrClosed)
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()

	st, _ := openStore(t)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := fmt.Sprintf("k%d", i)
			assert.NoError(t, st.Put(key, []byte(key)))

			got, ok, err := st.Get(key)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte(key), got)
		}()
	}

	wg.Wait()

	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
