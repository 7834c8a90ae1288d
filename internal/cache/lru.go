// Package cache provides response memoization for the REDCap client.
package cache

import (
	"bytes"
	"strconv"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Entry is a memoized response.
type Entry struct {
	StatusCode int
	Body       []byte
}

// ResponseCache is a thread-safe LRU of responses keyed by canonical payload.
// Concurrent misses for the same key share one fetch. Flush drops every
// entry and discards fetches that were in flight when it ran.
// Bodies are copied in and out, so callers may modify what they get back.
type ResponseCache struct {
	entries *lru.Cache[string, Entry]
	group   singleflight.Group
	gen     atomic.Uint64

	// mu orders Flush against storing a fetched entry.
	mu sync.Mutex
}

// NewResponseCache creates a cache holding at most maxItems responses.
func NewResponseCache(maxItems int) (*ResponseCache, error) {
	c, err := lru.New[string, Entry](maxItems)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{entries: c}, nil
}

// Do returns the cached entry for key, or calls fetch and caches its result.
// hit is true when no fetch was made by this call or a shared one.
// Failed fetches are not cached.
func (c *ResponseCache) Do(key string, fetch func() (Entry, error)) (e Entry, hit bool, err error) {
	if e, ok := c.entries.Get(key); ok {
		return e.clone(), true, nil
	}

	gen := c.gen.Load()
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10)+"|"+key, func() (any, error) {
		e, err := fetch()
		if err != nil {
			return Entry{}, err
		}
		c.store(key, gen, e)
		return e, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	// Waiters sharing a fetch each get their own copy.
	return v.(Entry).clone(), false, nil
}

// store adds e unless a flush ran since gen was read, which makes it stale.
func (c *ResponseCache) store(key string, gen uint64, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen.Load() == gen {
		c.entries.Add(key, e.clone())
	}
}

// Flush removes every entry. Mutating operations call it before they post.
func (c *ResponseCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Add(1)
	c.entries.Purge()
}

// Len returns the current number of entries.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

func (e Entry) clone() Entry {
	return Entry{StatusCode: e.StatusCode, Body: bytes.Clone(e.Body)}
}
