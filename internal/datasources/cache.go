// Package datasources holds the shared infrastructure under the provider
// clients: the cross-request TTL cache, quota accounting, rate limiting and
// circuit breaking.
package datasources

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// CacheEntry is one cached provider result.
type CacheEntry struct {
	Data     interface{}
	StoredAt time.Time
	TTL      time.Duration
}

// Cache is the process-wide provider cache. Read-heavy; last write wins per
// key. TTLs are minutes, not seconds, for the quota-constrained providers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	ttls    map[string]time.Duration
}

// Default TTLs by route category.
var defaultTTLs = map[string]time.Duration{
	"odds_board":   5 * time.Minute,
	"odds_props":   10 * time.Minute,
	"scoreboard":   2 * time.Minute,
	"officials":    60 * time.Minute,
	"splits":       10 * time.Minute,
	"injuries":     15 * time.Minute,
	"player_logs":  30 * time.Minute,
	"weather":      30 * time.Minute,
	"kp_index":     60 * time.Minute,
	"solar_flares": 60 * time.Minute,
	"moon":         6 * time.Hour,
	"trends":       30 * time.Minute,
	"serp":         12 * time.Hour, // hard quota; cache aggressively
	"news":         20 * time.Minute,
	"quote":        15 * time.Minute,
}

// NewCache creates a cache with the default per-route TTLs.
func NewCache() *Cache {
	ttls := make(map[string]time.Duration, len(defaultTTLs))
	for k, v := range defaultTTLs {
		ttls[k] = v
	}
	return &Cache{
		entries: make(map[string]*CacheEntry),
		ttls:    ttls,
	}
}

// SetTTL overrides the TTL for a route category.
func (c *Cache) SetTTL(route string, ttl time.Duration) {
	c.mu.Lock()
	c.ttls[route] = ttl
	c.mu.Unlock()
}

// TTLFor returns the configured TTL for a route, 5m if unknown.
func (c *Cache) TTLFor(route string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ttl, ok := c.ttls[route]; ok {
		return ttl
	}
	return 5 * time.Minute
}

// Key builds a cache key from the provider, route and every parameter that
// distinguishes results. A partial key is a correctness bug: sport, team
// pair, target and ET date all belong in params when they apply.
func Key(provider, route string, params map[string]string) string {
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, strings.ToLower(k)+"="+strings.ToLower(v))
	}
	sort.Strings(parts)
	return strings.ToLower(provider) + ":" + strings.ToLower(route) + ":" + strings.Join(parts, "&")
}

// Set stores data under key with the route's TTL.
func (c *Cache) Set(key, route string, data interface{}) {
	ttl := c.TTLFor(route)
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = &CacheEntry{Data: data, StoredAt: time.Now(), TTL: ttl}
	c.mu.Unlock()
}

// Get returns the live entry for key. Expired entries are misses; a hit only
// satisfies the data-used contract because entries are written exclusively
// by live provider calls.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.StoredAt) > e.TTL {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.Data, true
}

// PurgeExpired removes dead entries; the scheduler's cache-warm job calls it.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.StoredAt) > e.TTL {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
