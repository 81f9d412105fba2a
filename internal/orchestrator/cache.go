package orchestrator

import (
	"container/list"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
)

// cacheKey covers every request field that can change a recommendation.
func cacheKey(req pricing.Request) string {
	return strings.Join([]string{
		req.SKU,
		req.CustomerID,
		strconv.Itoa(req.Quantity),
		req.Country,
		req.Channel,
		req.Currency,
	}, ":")
}

type cacheEntry struct {
	key       string
	rec       pricing.Recommendation
	expiresAt time.Time
}

// resultCache is a size-bounded LRU of recommendations with a fixed TTL. A
// nil cache stores nothing. Entries are copied in and out so callers never
// share slices with the cache.
type resultCache struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	now     func() time.Time
	order   *list.List
	entries map[string]*list.Element
}

func newResultCache(size int, ttl time.Duration, now func() time.Time) *resultCache {
	return &resultCache{
		size:    size,
		ttl:     ttl,
		now:     now,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
	}
}

func (c *resultCache) get(key string) (pricing.Recommendation, bool) {
	if c == nil {
		return pricing.Recommendation{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return pricing.Recommendation{}, false
	}
	entry := el.Value.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return pricing.Recommendation{}, false
	}
	c.order.MoveToFront(el)
	return entry.rec.Clone(), true
}

func (c *resultCache) put(key string, rec pricing.Recommendation) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec = rec.Clone()
	expires := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.rec = rec
		entry.expiresAt = expires
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, rec: rec, expiresAt: expires})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) count() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CachedRecommendations reports how many recommendations are cached.
func (o *Orchestrator) CachedRecommendations() int {
	return o.cache.count()
}
