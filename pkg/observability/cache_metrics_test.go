package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/phpast/pkg/observability"
)

type stubCacheStats struct {
	hits   int64
	misses int64
}

func (s *stubCacheStats) CacheHits() int64   { return s.hits }
func (s *stubCacheStats) CacheMisses() int64 { return s.misses }

type stubEvictingCache struct {
	stubCacheStats

	evictions int64
}

func (s *stubEvictingCache) CacheEvictions() int64 { return s.evictions }

func TestCacheMetrics_Exported(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	err := observability.RegisterCacheMetrics(meter, map[string]observability.CacheStatsProvider{
		"parse": &stubEvictingCache{stubCacheStats: stubCacheStats{hits: 10, misses: 3}, evictions: 2},
		"store": &stubCacheStats{hits: 7, misses: 5},
	})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	hits := gaugePoints(t, rm, "phpast.cache.hits")
	assert.Equal(t, map[string]int64{"parse": 10, "store": 7}, hits)

	misses := gaugePoints(t, rm, "phpast.cache.misses")
	assert.Equal(t, map[string]int64{"parse": 3, "store": 5}, misses)

	evictions := gaugePoints(t, rm, "phpast.cache.evictions")
	assert.Equal(t, map[string]int64{"parse": 2}, evictions)
}

func TestCacheMetrics_NilProviders(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	err := observability.RegisterCacheMetrics(mp.Meter("test"), map[string]observability.CacheStatsProvider{
		"parse": nil,
	})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Nil(t, findMetric(rm, "phpast.cache.hits"))
}

// gaugePoints extracts gauge data points keyed by the "cache" attribute value.
func gaugePoints(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()

	m := findMetric(rm, name)
	require.NotNil(t, m, "%s metric not found", name)

	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected Gauge data type for %s", name)

	points := make(map[string]int64, len(gauge.DataPoints))

	for _, dp := range gauge.DataPoints {
		if v, found := dp.Attributes.Value("cache"); found {
			points[v.AsString()] = dp.Value
		}
	}

	return points
}
