package cache

// Stats is a snapshot of the parse cache counters.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Entries    int
	MaxEntries int
}

// HitRate is the share of lookups that found a cached tree, or 0 before
// the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the counters and the current occupancy.
func (c *ParseCache) Stats() Stats {
	return Stats{
		Hits:       c.CacheHits(),
		Misses:     c.CacheMisses(),
		Evictions:  c.CacheEvictions(),
		Entries:    c.Len(),
		MaxEntries: c.maxEntries,
	}
}

// CacheHits counts lookups answered with an already parsed tree. It does
// not take the cache lock, so the cache metrics callback can poll it.
func (c *ParseCache) CacheHits() int64 { return c.hits.Load() }

// CacheMisses counts lookups that found no tree for the source.
func (c *ParseCache) CacheMisses() int64 { return c.misses.Load() }

// CacheEvictions counts trees dropped to stay within MaxEntries.
func (c *ParseCache) CacheEvictions() int64 { return c.evictions.Load() }
