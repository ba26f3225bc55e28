// Package prefetch deduplicates provider lookups across all candidate bets
// and primes a request-local cache before the scoring loop runs.
package prefetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/peterostrander2/ai-betting-backend/internal/providers"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
)

// DefaultWorkers bounds the fan-out pool.
const DefaultWorkers = 16

// Tuple is the deduplication unit: one lookup per (home, away, target).
type Tuple struct {
	Home   string
	Away   string
	Target string
}

// Key lower-cases the tuple into the cache key. Every distinguishing
// parameter is part of the key; a partial key contaminates signals.
func (t Tuple) Key() string {
	return strings.ToLower(t.Home) + "|" + strings.ToLower(t.Away) + "|" + strings.ToLower(t.Target)
}

// Entry is the prefetched bundle for one tuple.
type Entry struct {
	Trend     providers.TrendPoint
	TrendMeta providers.Meta
	News      []providers.NewsItem
	NewsMeta  providers.Meta
}

// Cache is request-local: it is built by one Run call, read by that
// request's scoring loop, and garbage-collected with the request.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates an empty request-local cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the entry for a tuple.
func (c *Cache) Get(t Tuple) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[t.Key()]
	return e, ok
}

func (c *Cache) put(t Tuple, e Entry) {
	c.mu.Lock()
	c.entries[t.Key()] = e
	c.mu.Unlock()
}

// Len returns the number of primed tuples.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Planner runs the bounded parallel prime.
type Planner struct {
	bundle  *providers.Bundle
	workers int
	log     zerolog.Logger
}

// NewPlanner builds a planner over the provider bundle.
func NewPlanner(bundle *providers.Bundle, workers int, log zerolog.Logger) *Planner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Planner{
		bundle:  bundle,
		workers: workers,
		log:     log.With().Str("component", "prefetch").Logger(),
	}
}

// Dedupe collapses raw tuples to the unique set, first-seen order.
func Dedupe(tuples []Tuple) []Tuple {
	seen := make(map[string]bool, len(tuples))
	out := make([]Tuple, 0, len(tuples))
	for _, t := range tuples {
		k := t.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// Run primes the cache for every unique tuple. budget must be at most half
// the request time budget; the batch deadline cancels stragglers and their
// clients fail soft, so Run itself never errors.
func (p *Planner) Run(ctx context.Context, tuples []Tuple, budget time.Duration) *Cache {
	cache := NewCache()
	unique := Dedupe(tuples)
	if len(unique) == 0 {
		return cache
	}

	batchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(p.workers)
	started := time.Now()

	for _, t := range unique {
		t := t
		g.Go(func() error {
			query := t.Home + " vs " + t.Away + " " + t.Target
			var e Entry
			e.Trend, e.TrendMeta = p.bundle.Trends.GetTrend(gctx, query)
			e.News, e.NewsMeta = p.bundle.News.GetNews(gctx, query)
			cache.put(t, e)
			return nil
		})
	}
	_ = g.Wait()

	if batchCtx.Err() == context.DeadlineExceeded {
		telemetry.FromContext(ctx).MarkTimedOut("prefetch")
	}
	p.log.Debug().
		Int("tuples", len(unique)).
		Int("primed", cache.Len()).
		Dur("elapsed", time.Since(started)).
		Msg("prefetch batch complete")
	return cache
}
