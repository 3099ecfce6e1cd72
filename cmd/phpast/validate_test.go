package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidate_ConvertedTree(t *testing.T) {
	t.Parallel()

	res, err := newTestEngine(t).Convert(context.Background(), []byte("<?php function f(int $x) { return $x + 1; }"))
	require.NoError(t, err)

	doc, err := json.Marshal(res.Root)
	require.NoError(t, err)

	var out bytes.Buffer

	require.NoError(t, runValidate(stdinPath, "", bytes.NewReader(doc), &out))
}

func TestRunValidate_SchemaViolation(t *testing.T) {
	t.Parallel()

	doc := `{"kind":"Function","flags":0,"lineno":1,"children":{"name":["f"]}}`

	var out bytes.Buffer

	err := runValidate(stdinPath, "", strings.NewReader(doc), &out)
	require.ErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, out.String(), "AST validation failed")
	assert.Contains(t, out.String(), "Recommendations")
}

func TestRunValidate_MalformedJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := runValidate(stdinPath, "", strings.NewReader("{"), &out)
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestCountNodes(t *testing.T) {
	t.Parallel()

	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"AST_STMT_LIST","children":{
		"0":{"kind":"AST_VAR","children":{"name":"a"}},
		"1":null}}`), &doc))

	assert.Equal(t, 2, countNodes(doc))
	assert.Equal(t, "AST_VAR", getActualValue(doc, "children.0.kind"))
	assert.Empty(t, getActualValue(doc, "children.9.kind"))
}
