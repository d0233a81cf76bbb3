package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// LRUCache keeps up to maxSize values in process, each for ttl. It backs the
// dashboard when REDIS_URL is empty.
type LRUCache[T any] struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	index  map[string]*list.Element
	recent *list.List // front is most recently used
	stats  Stats
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

type lruEntry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*list.Element),
		recent:  list.New(),
	}
}

func (c *LRUCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*lruEntry[T])
		if c.now().Before(e.expires) {
			c.recent.MoveToFront(el)
			c.stats.Hits++
			return e.value, true
		}
		c.unlink(el)
	}
	c.stats.Misses++
	var zero T
	return zero, false
}

// Set stores value and restarts its ttl. The least recently used entry is
// dropped when the cache is full.
func (c *LRUCache[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &lruEntry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.recent.MoveToFront(el)
		return
	}
	c.index[key] = c.recent.PushFront(e)

	for c.recent.Len() > c.maxSize {
		c.unlink(c.recent.Back())
		c.stats.Evictions++
	}
}

func (c *LRUCache[T]) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if el, ok := c.index[key]; ok {
			c.unlink(el)
		}
	}
}

func (c *LRUCache[T]) DeletePrefix(_ context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeWhere(func(e *lruEntry[T]) bool { return strings.HasPrefix(e.key, prefix) })
}

// CleanExpired drops every expired entry and returns how many there were.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	return c.removeWhere(func(e *lruEntry[T]) bool { return !now.Before(e.expires) })
}

func (c *LRUCache[T]) removeWhere(match func(*lruEntry[T]) bool) int {
	removed := 0
	for el := c.recent.Front(); el != nil; {
		next := el.Next()
		if match(el.Value.(*lruEntry[T])) {
			c.unlink(el)
			removed++
		}
		el = next
	}
	return removed
}

func (c *LRUCache[T]) unlink(el *list.Element) {
	delete(c.index, el.Value.(*lruEntry[T]).key)
	c.recent.Remove(el)
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
