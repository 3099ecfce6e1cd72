package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal        = "phpast.conversion.files.total"
	metricBytesTotal        = "phpast.conversion.bytes.total"
	metricDiagnosticsTotal  = "phpast.conversion.diagnostics.total"
	metricStubsTotal        = "phpast.conversion.stubs.total"
	metricPlaceholdersTotal = "phpast.conversion.placeholders.total"
	metricConvertDuration   = "phpast.conversion.duration.seconds"

	attrOutcome = "outcome"

	outcomeClean    = "clean"
	outcomeDegraded = "degraded"
	outcomeFailed   = "failed"
)

// ConversionMetrics holds OTel instruments for per-file conversion metrics.
type ConversionMetrics struct {
	filesTotal        metric.Int64Counter
	bytesTotal        metric.Int64Counter
	diagnosticsTotal  metric.Int64Counter
	stubsTotal        metric.Int64Counter
	placeholdersTotal metric.Int64Counter
	duration          metric.Float64Histogram
}

// ConversionStats describes one converted file, decoupled from engine types.
type ConversionStats struct {
	Bytes        int
	Diagnostics  int
	Stubs        int
	Placeholders int
	Duration     time.Duration
	Failed       bool
}

// NewConversionMetrics creates conversion metric instruments from the given meter.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	b := newMetricBuilder(mt)

	cm := &ConversionMetrics{
		filesTotal:        b.counter(metricFilesTotal, "Files converted by outcome", "{file}"),
		bytesTotal:        b.counter(metricBytesTotal, "Source bytes converted", "By"),
		diagnosticsTotal:  b.counter(metricDiagnosticsTotal, "Diagnostics reported", "{diagnostic}"),
		stubsTotal:        b.counter(metricStubsTotal, "Unmapped shapes emitted as stubs", "{node}"),
		placeholdersTotal: b.counter(metricPlaceholdersTotal, "Placeholders substituted for invalid nodes", "{node}"),
		duration: b.histogram(metricConvertDuration, "Per-file conversion duration in seconds", "s",
			durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// Record adds one converted file. Safe to call on a nil receiver (no-op).
func (cm *ConversionMetrics) Record(ctx context.Context, stats ConversionStats) {
	if cm == nil {
		return
	}

	outcome := outcomeClean

	switch {
	case stats.Failed:
		outcome = outcomeFailed
	case stats.Diagnostics > 0 || stats.Stubs > 0 || stats.Placeholders > 0:
		outcome = outcomeDegraded
	}

	cm.filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	cm.bytesTotal.Add(ctx, int64(stats.Bytes))
	cm.diagnosticsTotal.Add(ctx, int64(stats.Diagnostics))
	cm.stubsTotal.Add(ctx, int64(stats.Stubs))
	cm.placeholdersTotal.Add(ctx, int64(stats.Placeholders))
	cm.duration.Record(ctx, stats.Duration.Seconds())
}
