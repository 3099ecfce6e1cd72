package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/cache"
)

// TestAcceptance_EndToEnd verifies traces, metrics, and structured logs with
// trace context work together around a real conversion.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("phpast")

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("phpast")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	conversions, err := observability.NewConversionMetrics(meter)
	require.NoError(t, err)

	parseCache := cache.New()
	require.NoError(t, observability.RegisterCacheMetrics(meter, map[string]observability.CacheStatsProvider{
		"parse": parseCache,
	}))

	var logBuf bytes.Buffer

	innerHandler := slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(innerHandler, observability.Config{
		ServiceName: "phpast",
		Environment: "test",
		Mode:        observability.ModeCLI,
	}))

	engine, err := phpast.New(
		phpast.WithTracer(tracer),
		phpast.WithCache(parseCache),
		phpast.WithPlaceholders(true),
	)
	require.NoError(t, err)

	ctx, rootSpan := tracer.Start(context.Background(), "cli.parse")

	start := time.Now()
	res, err := engine.Convert(ctx, []byte("<?php $a = ;"))
	require.NoError(t, err)

	red.RecordRequest(ctx, "cli.parse", "ok", time.Since(start))
	conversions.Record(ctx, observability.ConversionStats{
		Bytes:        12,
		Diagnostics:  len(res.Diagnostics),
		Stubs:        res.Stubs,
		Placeholders: res.Placeholders,
		Duration:     time.Since(start),
	})

	logger.InfoContext(ctx, "parse.complete", "diagnostics", len(res.Diagnostics))

	rootSpan.End()

	spans := spanExporter.GetSpans()
	require.Len(t, spans, 2)

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["cli.parse"])
	assert.True(t, spanNames["phpast.convert"])
	assert.Equal(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())

	traceID := spans[0].SpanContext.TraceID()

	var rm metricdata.ResourceMetrics

	require.NoError(t, metricReader.Collect(ctx, &rm))

	for _, name := range []string{
		"phpast.requests.total",
		"phpast.request.duration.seconds",
		"phpast.conversion.files.total",
		"phpast.conversion.diagnostics.total",
		"phpast.conversion.duration.seconds",
		"phpast.cache.misses",
	} {
		assert.NotNil(t, findMetric(rm, name), "metric %s should be recorded", name)
	}

	var logRecord map[string]any

	require.NoError(t, json.Unmarshal(logBuf.Bytes(), &logRecord))

	assert.Equal(t, traceID.String(), logRecord["trace_id"])
	assert.Contains(t, logRecord, "span_id")
	assert.Equal(t, "phpast", logRecord["service"])

	diags, ok := logRecord["diagnostics"].(float64)
	require.True(t, ok)
	assert.Positive(t, diags)
}
