package observability

import (
	"context"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits      = "phpast.cache.hits"
	metricCacheMisses    = "phpast.cache.misses"
	metricCacheEvictions = "phpast.cache.evictions"

	attrCache = "cache"
)

// CacheStatsProvider exposes cache hit/miss counters for OTel export.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// evictionCounter is implemented by caches that also report evictions.
type evictionCounter interface {
	CacheEvictions() int64
}

// RegisterCacheMetrics registers observable gauges reporting the counters of
// each named cache. Nil providers are skipped.
func RegisterCacheMetrics(mt metric.Meter, caches map[string]CacheStatsProvider) error {
	names := make([]string, 0, len(caches))

	for _, name := range slices.Sorted(maps.Keys(caches)) {
		if caches[name] != nil {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	observe := func(value func(CacheStatsProvider) (int64, bool)) metric.Int64Callback {
		return func(_ context.Context, o metric.Int64Observer) error {
			for _, name := range names {
				if v, ok := value(caches[name]); ok {
					o.Observe(v, metric.WithAttributes(attribute.String(attrCache, name)))
				}
			}

			return nil
		}
	}

	b := newMetricBuilder(mt)

	b.gauge(metricCacheHits, "Cache hit count", "{hit}",
		observe(func(p CacheStatsProvider) (int64, bool) { return p.CacheHits(), true }))
	b.gauge(metricCacheMisses, "Cache miss count", "{miss}",
		observe(func(p CacheStatsProvider) (int64, bool) { return p.CacheMisses(), true }))
	b.gauge(metricCacheEvictions, "Cache eviction count", "{eviction}",
		observe(func(p CacheStatsProvider) (int64, bool) {
			ec, ok := p.(evictionCounter)
			if !ok {
				return 0, false
			}

			return ec.CacheEvictions(), true
		}))

	return b.err
}
