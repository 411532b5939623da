package service

import (
	"sync"
	"testing"
	"time"

	"Social_Feed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCacheTTL(t *testing.T) {
	clock := testutil.NewClock(time.Unix(1700000000, 0))
	c := NewFeedCache(5*time.Second, clock.Now)

	_, ok := c.Get()
	assert.False(t, ok)

	page := &FeedPage{HasMore: true}
	c.Put(page)
	got, ok := c.Get()
	require.True(t, ok)
	assert.Same(t, page, got)

	clock.Advance(4999 * time.Millisecond)
	_, ok = c.Get()
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestFeedCacheInvalidate(t *testing.T) {
	c := NewFeedCache(0, nil)
	c.Put(&FeedPage{})
	c.Invalidate()
	_, ok := c.Get()
	assert.False(t, ok)

	// 空缓存上失效也不会出错
	c.Invalidate()
}

func TestFeedCacheFillDropsStalePage(t *testing.T) {
	c := NewFeedCache(time.Minute, nil)
	gen := c.Generation()
	c.Invalidate()

	assert.False(t, c.Fill(gen, &FeedPage{}))
	_, ok := c.Get()
	assert.False(t, ok)

	assert.True(t, c.Fill(c.Generation(), &FeedPage{}))
	_, ok = c.Get()
	assert.True(t, ok)
}

func TestFeedCacheConcurrentAccess(t *testing.T) {
	c := NewFeedCache(time.Minute, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch (i + j) % 3 {
				case 0:
					c.Put(&FeedPage{})
				case 1:
					c.Get()
				default:
					c.Invalidate()
				}
			}
		}(i)
	}
	wg.Wait()
}
