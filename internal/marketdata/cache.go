package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ttlCache is a bounded in-memory cache with fixed TTL and oldest-entry
// eviction. It replaces the unbounded dict-plus-timestamps approach with an
// encapsulated component: capacity and expiry are explicit, and nothing is
// shared through ambient global state.
type ttlCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	now        func() time.Time // injectable clock for tests
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

func newTTLCache(ttl time.Duration, maxEntries int) *ttlCache {
	return &ttlCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// get returns the cached value if present and younger than the TTL.
func (c *ttlCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.value, true
}

// set stores a value, evicting the oldest entry when at capacity.
func (c *ttlCache) set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}

	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

func (c *ttlCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CacheStats reports cache effectiveness for the system health endpoint.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *ttlCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// CachedProvider wraps a Provider with the bounded TTL cache. Quote entries
// are keyed by ticker alone (coarse, per the refresh model); history entries
// are keyed by ticker+period and are never shared across periods.
type CachedProvider struct {
	upstream Provider
	cache    *ttlCache
	log      zerolog.Logger
}

// NewCachedProvider creates a caching decorator around a provider.
func NewCachedProvider(upstream Provider, ttl time.Duration, maxEntries int, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		cache:    newTTLCache(ttl, maxEntries),
		log:      log.With().Str("component", "marketdata_cache").Logger(),
	}
}

// FetchQuote returns the cached quote when fresh, otherwise fetches upstream.
func (p *CachedProvider) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	key := "quote:" + ticker
	if v, ok := p.cache.get(key); ok {
		return v.(*Quote), nil
	}

	quote, err := p.upstream.FetchQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	p.cache.set(key, quote)
	return quote, nil
}

// FetchHistory returns the cached series when fresh, otherwise fetches upstream.
func (p *CachedProvider) FetchHistory(ctx context.Context, ticker string, period Period) ([]Candle, error) {
	key := "history:" + ticker + ":" + period.String()
	if v, ok := p.cache.get(key); ok {
		return v.([]Candle), nil
	}

	candles, err := p.upstream.FetchHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	p.cache.set(key, candles)
	return candles, nil
}

// Stats returns current cache statistics.
func (p *CachedProvider) Stats() CacheStats {
	return p.cache.stats()
}
