package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

func TestInit_NoopWithoutEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "test"
	cfg.Mode = observability.ModeServe

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)

	_, span := providers.Tracer.Start(context.Background(), "cli.parse")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_LoggerUsesConfiguredWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &buf

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.Info("ready")

	assert.Contains(t, buf.String(), "msg=ready")
	assert.Contains(t, buf.String(), "service=phpast")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single", "key=value", map[string]string{"key": "value"}},
		{"multiple", "k1=v1,k2=v2", map[string]string{"k1": "v1", "k2": "v2"}},
		{"spaces", " k1 = v1 , k2 = v2 ", map[string]string{"k1": "v1", "k2": "v2"}},
		{"value with equals", "auth=a=b", map[string]string{"auth": "a=b"}},
		{"no equals", "invalid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.input))
		})
	}
}

func TestBuildResource(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "0.3.0"
	cfg.Mode = observability.ModeMCP

	res, err := observability.BuildResourceForTest(cfg)
	require.NoError(t, err)

	attrs := make(map[string]string)
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	assert.Equal(t, "phpast", attrs["service.name"])
	assert.Equal(t, "0.3.0", attrs["service.version"])
	assert.Equal(t, "mcp", attrs["app.mode"])
	assert.NotContains(t, attrs, "deployment.environment")
}

// Sampler cases use t.Setenv and cannot run in parallel.
func TestSelectSampler(t *testing.T) {
	tests := []struct {
		name        string
		sampler     string
		arg         string
		debug       bool
		ratio       float64
		wantSampled bool
	}{
		{name: "default", wantSampled: true},
		{name: "always on", sampler: "always_on", wantSampled: true},
		{name: "always off", sampler: "always_off"},
		{name: "ratio one", sampler: "traceidratio", arg: "1.0", wantSampled: true},
		{name: "ratio zero", sampler: "traceidratio", arg: "0"},
		{name: "unparsable ratio", sampler: "TraceIDRatio", arg: "half", wantSampled: true},
		{name: "parent based on", sampler: "parentbased_always_on", wantSampled: true},
		{name: "parent based off drops roots", sampler: "parentbased_always_off"},
		{name: "debug overrides env", sampler: "always_off", debug: true, wantSampled: true},
		{name: "config ratio", ratio: 1, wantSampled: true},
		{name: "unknown sampler falls back", sampler: "jaeger_remote", wantSampled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)

			cfg := observability.DefaultConfig()
			cfg.DebugTrace = tt.debug
			cfg.SampleRatio = tt.ratio

			assert.Equal(t, tt.wantSampled, observability.SamplerSpanForTest(cfg))
		})
	}
}
