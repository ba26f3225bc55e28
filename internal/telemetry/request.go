// Package telemetry separates the two usage ledgers the engine keeps:
// per-request counters ride the request context and die with it, while
// last-used timestamps live in a process-wide atomic map. Mixing the two is
// the defect this package exists to prevent.
package telemetry

import (
	"context"
	"sync"
	"time"
)

type ctxKey struct{}

// IntegrationStats is the per-provider counter bundle for one request.
type IntegrationStats struct {
	Called     int64   `json:"called"`
	OK2xx      int64   `json:"2xx"`
	CacheHits  int64   `json:"cache_hit"`
	LatencyMS  float64 `json:"latency_ms"`
	LastStatus string  `json:"status"`
	LastError  string  `json:"last_error,omitempty"`
}

// RequestTelemetry is the request-local carrier. It is created per request,
// attached to the context, and never shared between requests.
type RequestTelemetry struct {
	mu        sync.Mutex
	stats     map[string]*IntegrationStats
	timedOut  []string
	startedAt time.Time
	phases    map[string]time.Duration
}

// NewRequestTelemetry creates an empty carrier.
func NewRequestTelemetry() *RequestTelemetry {
	return &RequestTelemetry{
		stats:     make(map[string]*IntegrationStats),
		phases:    make(map[string]time.Duration),
		startedAt: time.Now(),
	}
}

// NewContext attaches rt to ctx.
func NewContext(ctx context.Context, rt *RequestTelemetry) context.Context {
	return context.WithValue(ctx, ctxKey{}, rt)
}

// FromContext returns the carrier attached to ctx, or nil when the call is
// not request-scoped (scheduler jobs run without one).
func FromContext(ctx context.Context) *RequestTelemetry {
	rt, _ := ctx.Value(ctxKey{}).(*RequestTelemetry)
	return rt
}

func (rt *RequestTelemetry) get(name string) *IntegrationStats {
	s, ok := rt.stats[name]
	if !ok {
		s = &IntegrationStats{}
		rt.stats[name] = s
	}
	return s
}

// RecordCall records a live provider call and its outcome.
func (rt *RequestTelemetry) RecordCall(name string, ok bool, latency time.Duration, status string, errMsg string) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := rt.get(name)
	s.Called++
	if ok {
		s.OK2xx++
	}
	s.LatencyMS = float64(latency.Milliseconds())
	s.LastStatus = status
	s.LastError = errMsg
}

// RecordCacheHit records a cache hit for name.
func (rt *RequestTelemetry) RecordCacheHit(name string) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s := rt.get(name)
	s.CacheHits++
	s.LastStatus = "CACHE_HIT"
}

// MarkTimedOut appends a component to the timed-out list, once.
func (rt *RequestTelemetry) MarkTimedOut(component string) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, c := range rt.timedOut {
		if c == component {
			return
		}
	}
	rt.timedOut = append(rt.timedOut, component)
}

// RecordPhase stores the wall duration of a pipeline phase.
func (rt *RequestTelemetry) RecordPhase(name string, d time.Duration) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.phases[name] = d
}

// Snapshot returns copies of the counters for the debug payload.
func (rt *RequestTelemetry) Snapshot() (map[string]IntegrationStats, []string, map[string]float64) {
	if rt == nil {
		return nil, nil, nil
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	stats := make(map[string]IntegrationStats, len(rt.stats))
	for k, v := range rt.stats {
		stats[k] = *v
	}
	timedOut := append([]string(nil), rt.timedOut...)
	phases := make(map[string]float64, len(rt.phases))
	for k, v := range rt.phases {
		phases[k] = float64(v.Milliseconds())
	}
	return stats, timedOut, phases
}

// CacheHitCount returns the cache-hit counter for one integration.
func (rt *RequestTelemetry) CacheHitCount(name string) int64 {
	if rt == nil {
		return 0
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.get(name).CacheHits
}
