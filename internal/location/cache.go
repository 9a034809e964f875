package location

import (
	"regexp"
	"sync"
)

// MatcherCache holds compiled district matchers keyed by slug. It is bounded:
// once it holds capacity entries the next insert clears it entirely.
// Entries are immutable after insertion.
type MatcherCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*regexp.Regexp
	clears   int
}

// NewMatcherCache creates a cache holding at most capacity matchers.
// A non-positive capacity falls back to 256.
func NewMatcherCache(capacity int) *MatcherCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &MatcherCache{
		capacity: capacity,
		entries:  make(map[string]*regexp.Regexp, capacity),
	}
}

// Get returns the matcher cached for slug.
func (c *MatcherCache) Get(slug string) (*regexp.Regexp, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	re, ok := c.entries[slug]
	return re, ok
}

// Put stores re under slug, clearing the cache first if it is full.
// An existing entry is kept so concurrent writers agree on one value.
func (c *MatcherCache) Put(slug string, re *regexp.Regexp) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[slug]; ok {
		return existing
	}
	if len(c.entries) >= c.capacity {
		c.entries = make(map[string]*regexp.Regexp, c.capacity)
		c.clears++
	}
	c.entries[slug] = re
	return re
}

// Len reports the number of cached matchers.
func (c *MatcherCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clears reports how many times the cache has been emptied on overflow.
func (c *MatcherCache) Clears() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clears
}
