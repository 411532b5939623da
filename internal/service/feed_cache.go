package service

import (
	"sync"
	"time"
)

// DefaultFeedCacheTTL 匿名首页缓存有效期
const DefaultFeedCacheTTL = 5 * time.Second

// FeedCache holds the single anonymous, first-page, default-filter feed page.
// It is safe for concurrent use; Invalidate never fails.
type FeedCache struct {
	mu    sync.RWMutex
	page  *FeedPage
	at    time.Time
	gen   uint64
	ttl   time.Duration
	clock func() time.Time
}

func NewFeedCache(ttl time.Duration, clock func() time.Time) *FeedCache {
	if ttl <= 0 {
		ttl = DefaultFeedCacheTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &FeedCache{ttl: ttl, clock: clock}
}

// Get returns the cached page if it is younger than the TTL.
func (c *FeedCache) Get() (*FeedPage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.page == nil || c.clock().Sub(c.at) >= c.ttl {
		return nil, false
	}
	return c.page, true
}

// Put stores page stamped with the current time.
func (c *FeedCache) Put(page *FeedPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = page
	c.at = c.clock()
}

// Generation returns a token that Fill accepts only if no invalidation happened since.
func (c *FeedCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Fill stores a page computed after Generation returned gen. A page computed
// before an intervening write is dropped instead of being served until the TTL.
func (c *FeedCache) Fill(gen uint64, page *FeedPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.page = page
	c.at = c.clock()
	return true
}

// Invalidate unconditionally clears the slot.
func (c *FeedCache) Invalidate() {
	c.mu.Lock()
	c.page = nil
	c.at = time.Time{}
	c.gen++
	c.mu.Unlock()
}
