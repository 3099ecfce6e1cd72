package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

func TestConversionMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewConversionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	cm.Record(ctx, observability.ConversionStats{Bytes: 100, Duration: time.Millisecond})
	cm.Record(ctx, observability.ConversionStats{Bytes: 50, Diagnostics: 2, Placeholders: 1, Duration: time.Millisecond})
	cm.Record(ctx, observability.ConversionStats{Failed: true})

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "phpast.conversion.files.total")
	require.NotNil(t, files)

	sum, ok := files.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	outcomes := make(map[string]int64, len(sum.DataPoints))

	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		outcomes[v.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{"clean": 1, "degraded": 1, "failed": 1}, outcomes)

	bytesTotal := findMetric(rm, "phpast.conversion.bytes.total")
	require.NotNil(t, bytesTotal)

	bytesSum, ok := bytesTotal.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, bytesSum.DataPoints, 1)
	assert.Equal(t, int64(150), bytesSum.DataPoints[0].Value)
}

func TestConversionMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var cm *observability.ConversionMetrics

	assert.NotPanics(t, func() {
		cm.Record(context.Background(), observability.ConversionStats{Bytes: 1})
	})
}
