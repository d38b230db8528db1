package redirect

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache keeps slug -> destination for hot links. A nil *Cache is valid and
// caches nothing.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// CacheStats is a snapshot of the ristretto counters.
type CacheStats struct {
	Enabled     bool    `json:"enabled"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// NewCache returns nil when ttl <= 0.
func NewCache(ttl time.Duration, maxItems int64) (*Cache, error) {
	if ttl <= 0 {
		return nil, nil
	}
	if maxItems <= 0 {
		maxItems = 10_000
	}
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // ristretto wants ~10x the expected item count
		MaxCost:     maxItems,      // every entry costs 1
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect cache: %w", err)
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func (c *Cache) Get(slug string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.client.Get(slug)
	if !ok {
		return "", false
	}
	dest, ok := v.(string)
	return dest, ok
}

func (c *Cache) Set(slug, destination string) {
	if c == nil {
		return
	}
	c.client.SetWithTTL(slug, destination, 1, c.ttl)
}

// Forget drops slug, after an update or delete.
func (c *Cache) Forget(slug string) {
	if c == nil {
		return
	}
	c.client.Del(slug)
}

// Wait blocks until buffered writes are applied.
func (c *Cache) Wait() {
	if c == nil {
		return
	}
	c.client.Wait()
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.client.Close()
}

func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	stats := CacheStats{Enabled: true, TTLSeconds: int(c.ttl.Seconds())}
	m := c.client.Metrics
	if m == nil {
		return stats
	}
	stats.Hits = m.Hits()
	stats.Misses = m.Misses()
	stats.KeysAdded = m.KeysAdded()
	stats.KeysEvicted = m.KeysEvicted()
	stats.HitRatio = m.Ratio()
	return stats
}
