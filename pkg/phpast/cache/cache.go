// Package cache provides the parse cache shared by long-lived conversion
// sessions: an LRU map from exact source text to its parsed tree.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// DefaultMaxEntries is the capacity used when none is configured. Entries
// only pay off for buffers edited repeatedly in one session.
const DefaultMaxEntries = 10

// ParseFunc parses src on a cache miss.
type ParseFunc func(ctx context.Context, src []byte) (*cst.Tree, error)

type entry struct {
	key  string
	tree *cst.Tree
	prev *entry
	next *entry
}

// ParseCache maps source text to its parsed tree and diagnostics. Lookups
// match the full text byte for byte. A single mutex guards lookup,
// insertion and eviction.
type ParseCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // Most recently used.
	tail    *entry // Least recently used.

	maxEntries int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Option configures a ParseCache.
type Option func(*ParseCache)

// WithMaxEntries sets the capacity. Non-positive values keep the default.
func WithMaxEntries(n int) Option {
	return func(c *ParseCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *ParseCache {
	c := &ParseCache{
		entries:    make(map[string]*entry),
		maxEntries: DefaultMaxEntries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the cached tree for src.
func (c *ParseCache) Get(src []byte) (*cst.Tree, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[string(src)]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)
	c.moveToFront(ent)

	return ent.tree, true
}

// Put stores tree for src, evicting the least recently used entry when
// the cache is full.
func (c *ParseCache) Put(src []byte, tree *cst.Tree) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := string(src)

	if ent, ok := c.entries[key]; ok {
		ent.tree = tree
		c.moveToFront(ent)

		return
	}

	for len(c.entries) >= c.maxEntries && c.tail != nil {
		c.evictOne()
	}

	ent := &entry{key: key, tree: tree}
	c.entries[key] = ent
	c.addToFront(ent)
}

// GetOrParse returns the cached tree for src or parses and caches it.
// Parsing runs outside the lock; concurrent misses on the same text may
// parse twice and the last result wins.
func (c *ParseCache) GetOrParse(ctx context.Context, src []byte, parse ParseFunc) (*cst.Tree, error) {
	if tree, ok := c.Get(src); ok {
		return tree, nil
	}

	tree, err := parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	c.Put(src, tree)

	return tree, nil
}

// Len returns the number of cached entries.
func (c *ParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// MaxEntries returns the configured capacity.
func (c *ParseCache) MaxEntries() int {
	return c.maxEntries
}

// Clear drops every entry. Counters are kept.
func (c *ParseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

func (c *ParseCache) addToFront(ent *entry) {
	ent.prev = nil
	ent.next = c.head

	if c.head != nil {
		c.head.prev = ent
	}

	c.head = ent

	if c.tail == nil {
		c.tail = ent
	}
}

func (c *ParseCache) unlink(ent *entry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.head = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.tail = ent.prev
	}

	ent.prev = nil
	ent.next = nil
}

func (c *ParseCache) moveToFront(ent *entry) {
	if c.head == ent {
		return
	}

	c.unlink(ent)
	c.addToFront(ent)
}

func (c *ParseCache) evictOne() {
	victim := c.tail

	c.unlink(victim)
	delete(c.entries, victim.key)
	c.evictions.Add(1)
}
