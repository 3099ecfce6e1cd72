package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

func newJSONLogger(buf *bytes.Buffer, cfg observability.Config) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, cfg))
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.Config{
		ServiceName:    "test-svc",
		ServiceVersion: "0.3.0",
		Environment:    "test",
		Mode:           observability.ModeCLI,
	})

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "test message")

	record := decodeRecord(t, &buf)

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "test-svc", record["service"])
	assert.Equal(t, "0.3.0", record["version"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_NoTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.Config{ServiceName: "phpast", Mode: observability.ModeMCP})
	logger.InfoContext(context.Background(), "no span")

	record := decodeRecord(t, &buf)

	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "env")
	assert.NotContains(t, record, "version")
	assert.Equal(t, "phpast", record["service"])
	assert.Equal(t, "mcp", record["mode"])
}

func TestTracingHandler_FileAttribute(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.Config{ServiceName: "phpast", Mode: observability.ModeCLI})

	ctx := observability.WithFile(context.Background(), "src/index.php")
	logger.DebugContext(ctx, "conversion degraded", slog.Int("stubs", 1))

	record := decodeRecord(t, &buf)

	assert.Equal(t, "src/index.php", record["file"])
	assert.InDelta(t, 1, record["stubs"], 0)
}

func TestWithFile_EmptyLabel(t *testing.T) {
	t.Parallel()

	ctx := observability.WithFile(context.Background(), "")

	_, ok := observability.FileFromContext(ctx)
	assert.False(t, ok)

	label, ok := observability.FileFromContext(observability.WithFile(ctx, "-"))
	require.True(t, ok)
	assert.Equal(t, "-", label)
}

func TestTracingHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.Config{ServiceName: "phpast", Mode: observability.ModeCLI})

	grouped := logger.WithGroup("convert")
	grouped.InfoContext(context.Background(), "done", slog.String("kind", "program"))

	record := decodeRecord(t, &buf)

	assert.Equal(t, "phpast", record["service"])

	group, ok := record["convert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "program", group["kind"])
}

func TestTracingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, observability.Config{ServiceName: "phpast", Mode: observability.ModeCLI})

	logger.With(slog.String("op", "parse")).InfoContext(context.Background(), "started")

	record := decodeRecord(t, &buf)

	assert.Equal(t, "parse", record["op"])
	assert.Equal(t, "phpast", record["service"])
}

func TestNewLogger_WritesToConfiguredWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.LogWriter = &buf
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg)
	logger.Info("dropped")
	logger.Warn("kept")

	record := decodeRecord(t, &buf)

	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "phpast", record["service"])
}
