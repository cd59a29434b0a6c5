package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"etf-grid-backtest/internal/model"
)

type cacheEntry struct {
	bars      model.Series
	expiresAt time.Time
}

// SeriesCache is a TTL cache for loaded bar series, so repeated API
// requests over the same symbol and range skip the store.
type SeriesCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
}

func NewSeriesCache(ttl time.Duration) *SeriesCache {
	c := &SeriesCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
	}
	go c.cleanup()
	return c
}

// Get retrieves a cached series if present and not expired.
func (c *SeriesCache) Get(key string) (model.Series, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.bars, true
}

func (c *SeriesCache) Set(key string, bars model.Series) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry{
		bars:      bars,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *SeriesCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

func (c *SeriesCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, entry := range c.store {
			if now.After(entry.expiresAt) {
				delete(c.store, key)
			}
		}
		c.mu.Unlock()
	}
}

// CacheKey builds a deterministic key for a symbol and date range.
func CacheKey(symbol string, start, end time.Time) string {
	keyStr := fmt.Sprintf("%s:%s:%s",
		symbol,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
