package observability

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// responseRecorder remembers the status and body size of a response.
type responseRecorder struct {
	http.ResponseWriter

	status  int
	bytes   int
	started bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if !rr.started {
		rr.status = code
		rr.started = true
	}

	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(buf []byte) (int, error) {
	rr.started = true

	n, err := rr.ResponseWriter.Write(buf)
	rr.bytes += n

	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// HTTPMiddleware traces every request as a server span named
// "METHOD /path", continuing a W3C trace carried in the request headers.
// Responses with a 5xx status mark the span as failed.
func HTTPMiddleware(tracer trace.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(ctx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(hr)...),
		)
		defer span.End()

		rec := &responseRecorder{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(rec, hr.WithContext(ctx))

		span.SetAttributes(
			semconv.HTTPResponseStatusCode(rec.status),
			semconv.HTTPResponseBodySize(rec.bytes),
		)

		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

func requestAttributes(hr *http.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(hr.Method),
		attribute.String("http.target", hr.URL.Path),
	}

	if hr.ContentLength > 0 {
		attrs = append(attrs, semconv.HTTPRequestBodySize(int(hr.ContentLength)))
	}

	return attrs
}
