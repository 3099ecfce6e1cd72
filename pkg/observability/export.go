package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

type shutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// otlpExport builds the OTLP/gRPC trace and metric pipelines for one
// resource. Both share the endpoint, TLS and header settings of cfg.
type otlpExport struct {
	cfg Config
	res *resource.Resource
}

func (e otlpExport) enabled() bool {
	return e.cfg.OTLPEndpoint != ""
}

func (e otlpExport) tracerProvider(ctx context.Context) (trace.TracerProvider, shutdownFunc, error) {
	if !e.enabled() {
		return nooptrace.NewTracerProvider(), noopShutdown, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(e.cfg.OTLPEndpoint)}
	if e.cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(e.cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(e.cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	// Blocked attributes are only reported while debugging traces.
	var filterLog *slog.Logger
	if e.cfg.DebugTrace {
		filterLog = NewLogger(Config{
			ServiceName: e.cfg.ServiceName,
			Mode:        e.cfg.Mode,
			LogLevel:    slog.LevelWarn,
			LogWriter:   e.cfg.LogWriter,
		})
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewBatchSpanProcessor(exporter), filterLog)),
		sdktrace.WithResource(e.res),
		sdktrace.WithSampler(selectSampler(e.cfg)),
	)

	return tp, tp.Shutdown, nil
}

func (e otlpExport) meterProvider(ctx context.Context) (metric.MeterProvider, shutdownFunc, error) {
	if !e.enabled() {
		return noopmetric.NewMeterProvider(), noopShutdown, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(e.cfg.OTLPEndpoint)}
	if e.cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(e.cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(e.cfg.OTLPHeaders))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(e.res),
	)

	return mp, mp.Shutdown, nil
}

// ParseOTLPHeaders parses the "key=value,key=value" form of
// OTEL_EXPORTER_OTLP_HEADERS. Pairs without "=" are skipped; nil is
// returned when nothing remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
