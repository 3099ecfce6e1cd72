package mcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/mcp"
)

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	return result
}

func firstText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestServer_ListToolNames(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})

	assert.Equal(t, []string{"php_ast", "php_ast_kinds"}, srv.ListToolNames())
}

func TestServer_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(toolsResult.Tools))

	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{"php_ast", "php_ast_kinds"}, names)
}

func TestServer_ConvertJSON(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, "php_ast", map[string]any{"code": "<?php echo 1;"})
	assert.False(t, result.IsError)

	var out struct {
		Version int `json:"version"`
		AST     struct {
			Kind string `json:"kind"`
		} `json:"ast"`
		Diagnostics []any `json:"diagnostics"`
	}

	require.NoError(t, json.Unmarshal([]byte(firstText(t, result)), &out))
	assert.Equal(t, 85, out.Version)
	assert.Equal(t, "AST_STMT_LIST", out.AST.Kind)
	assert.Empty(t, out.Diagnostics)
}

func TestServer_ConvertDump(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, "php_ast", map[string]any{
		"code":           "<?php function f() {}",
		"format":         "dump",
		"schema_version": 70,
	})
	assert.False(t, result.IsError)

	dump := firstText(t, result)
	assert.True(t, strings.HasPrefix(dump, "AST_STMT_LIST"), dump)
	assert.Contains(t, dump, "AST_FUNC_DECL")
}

func TestServer_ConvertErrors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty code", map[string]any{"code": ""}, "must not be empty"},
		{"bad format", map[string]any{"code": "<?php", "format": "xml"}, "unknown format"},
		{"bad version", map[string]any{"code": "<?php", "schema_version": 60}, "60"},
	}

	for _, tt := range tests {
		result := callTool(t, session, "php_ast", tt.args)
		assert.True(t, result.IsError, tt.name)
		assert.Contains(t, strings.ToLower(firstText(t, result)), tt.want, tt.name)
	}
}

func TestServer_ConvertPlaceholdersAndOffset(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	src := "<?php $a->foo;"

	result := callTool(t, session, "php_ast", map[string]any{
		"code":         src,
		"placeholders": true,
		"offset":       strings.Index(src, "foo") + 1,
	})
	require.False(t, result.IsError)

	var out struct {
		Selected []struct {
			Kind string `json:"kind"`
		} `json:"selected"`
	}

	require.NoError(t, json.Unmarshal([]byte(firstText(t, result)), &out))
	require.NotEmpty(t, out.Selected)
	assert.Equal(t, "AST_PROP", out.Selected[0].Kind)
}

func TestServer_Kinds(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, "php_ast_kinds", map[string]any{})
	require.False(t, result.IsError)

	var out struct {
		Versions []int    `json:"versions"`
		Kinds    []string `json:"kinds"`
	}

	require.NoError(t, json.Unmarshal([]byte(firstText(t, result)), &out))
	assert.Equal(t, []int{50, 70, 80, 85}, out.Versions)
	assert.Contains(t, out.Kinds, "binary_expression")
}

func TestServer_SharedCacheAndMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	parseCache := cache.New()
	session := connect(t, mcp.NewServer(mcp.ServerDeps{Cache: parseCache, Metrics: red}))

	for range 2 {
		result := callTool(t, session, "php_ast", map[string]any{"code": "<?php echo 1;"})
		require.False(t, result.IsError)
	}

	assert.Equal(t, int64(1), parseCache.CacheMisses())
	assert.Equal(t, int64(1), parseCache.CacheHits())

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := false

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "phpast.requests.total" {
				found = true
			}
		}
	}

	assert.True(t, found)
}

func TestServer_ToolCallSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Tracer: tp.Tracer("test")}))

	result := callTool(t, session, "php_ast_kinds", map[string]any{})
	require.False(t, result.IsError)

	last, ok := result.Content[len(result.Content)-1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(last.Text, "trace_id="), last.Text)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.php_ast_kinds", spans[0].Name)
}
