package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp.Tracer("test"), exporter
}

func TestHTTPMiddleware_Spans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		status     int
		wantName   string
		wantStatus codes.Code
	}{
		{"parse ok", http.MethodPost, "/api/parse", http.StatusOK, "POST /api/parse", codes.Unset},
		{"kinds", http.MethodGet, "/api/kinds", http.StatusOK, "GET /api/kinds", codes.Unset},
		{"client error", http.MethodPost, "/api/parse", http.StatusBadRequest, "POST /api/parse", codes.Unset},
		{"server error", http.MethodPost, "/api/parse", http.StatusInternalServerError, "POST /api/parse", codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracer, exporter := newTestTracer(t)

			var sawSpan bool

			handler := http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
				sawSpan = trace.SpanContextFromContext(hr.Context()).IsValid()

				rw.WriteHeader(tt.status)
			})

			rec := httptest.NewRecorder()
			observability.HTTPMiddleware(tracer, handler).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))

			assert.True(t, sawSpan)
			assert.Equal(t, tt.status, rec.Code)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantName, spans[0].Name)
			assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			assert.Equal(t, int64(tt.status), spanAttrMap(spans[0])["http.response.status_code"])
		})
	}
}

func TestHTTPMiddleware_ExtractsTraceParent(t *testing.T) {
	t.Parallel()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer, exporter := newTestTracer(t)

	parentTraceID := "0af7651916cd43dd8448eb211c80319c"
	parentSpanID := "00f067aa0ba902b7"

	req := httptest.NewRequest(http.MethodGet, "/api/kinds", http.NoBody)
	req.Header.Set("Traceparent", "00-"+parentTraceID+"-"+parentSpanID+"-01")

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	observability.HTTPMiddleware(tracer, handler).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, parentTraceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, parentSpanID, spans[0].Parent.SpanID().String())
}

func TestHTTPMiddleware_RecordsBodySizes(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	const (
		reqBody  = `{"code":"<?php"}`
		respBody = `{"kind":"AST_STMT_LIST"}`
	)

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, err := rw.Write([]byte(respBody))
		assert.NoError(t, err)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(reqBody))
	observability.HTTPMiddleware(tracer, handler).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"])
	assert.Equal(t, int64(len(respBody)), attrs["http.response.body.size"])
	assert.Equal(t, int64(len(reqBody)), attrs["http.request.body.size"])
}
