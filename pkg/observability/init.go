package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "phpast"
	meterName  = "phpast"
)

// Providers holds the initialized observability providers.
type Providers struct {
	// Tracer starts command, request and conversion spans.
	Tracer trace.Tracer

	// Meter creates the RED, conversion and cache instruments.
	Meter metric.Meter

	// Logger is the structured logger; see NewLogger.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry. Call it once before exit.
	Shutdown func(ctx context.Context) error
}

// Init sets up tracing, metrics and logging for one process. Without an
// OTLP endpoint the tracer and meter are no-ops and only logging is live.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	exp := otlpExport{cfg: cfg, res: res}

	tp, stopTraces, err := exp.tracerProvider(ctx)
	if err != nil {
		return Providers{}, fmt.Errorf("build tracer provider: %w", err)
	}

	mp, stopMetrics, err := exp.meterProvider(ctx)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), stopTraces(ctx))
	}

	if exp.enabled() && !cfg.TraceVerbose {
		tp = NewFilteringTracerProvider(tp)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return Providers{
		Tracer:   tp.Tracer(tracerName),
		Meter:    mp.Meter(meterName),
		Logger:   NewLogger(cfg),
		Shutdown: flushWithin(shutdownTimeout(cfg), stopTraces, stopMetrics),
	}, nil
}

func shutdownTimeout(cfg Config) time.Duration {
	sec := cfg.ShutdownTimeoutSec
	if sec <= 0 {
		sec = defaultShutdownTimeoutSec
	}

	return time.Duration(sec) * time.Second
}

// flushWithin runs every stop function under one deadline and joins their
// errors.
func flushWithin(timeout time.Duration, stops ...shutdownFunc) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		errs := make([]error, 0, len(stops))
		for _, stop := range stops {
			errs = append(errs, stop(ctx))
		}

		return errors.Join(errs...)
	}
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}
