package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCleanupInterval = 30 * time.Second

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryCache keeps entries in process memory with a background sweep
type InMemoryCache struct {
	entries sync.Map // map[string]*cacheEntry
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// NewInMemoryCache starts a cache with periodic expiry cleanup
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{stopCh: make(chan struct{})}
	go c.cleanupExpired(defaultCleanupInterval)
	return c
}

// Get implements Cache
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.entries.Load(key); ok {
		entry := v.(*cacheEntry)
		if !entry.isExpired(time.Now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, true, nil
		}
		c.entries.Delete(key)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false, nil
}

// Set implements Cache
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.entries.Store(key, &cacheEntry{value: value, expiresAt: time.Now().Add(ttl)})
	return nil
}

// DeletePrefix implements Cache
func (c *InMemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.entries.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			c.entries.Delete(k)
		}
		return true
	})
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.entries.Range(func(k, v any) bool {
				if v.(*cacheEntry).isExpired(now) {
					c.entries.Delete(k)
				}
				return true
			})
		}
	}
}

var _ Cache = (*InMemoryCache)(nil)
