package telemetry

import (
	"sync"
	"time"
)

// LastUsedTracker is the process-wide ledger of when each integration last
// produced data. Deliberately separate from the request carrier: this one
// survives the request and feeds the integrations health endpoint.
type LastUsedTracker struct {
	mu   sync.RWMutex
	used map[string]time.Time
}

// NewLastUsedTracker creates an empty tracker.
func NewLastUsedTracker() *LastUsedTracker {
	return &LastUsedTracker{used: make(map[string]time.Time)}
}

// Touch records a successful use of the integration.
func (t *LastUsedTracker) Touch(name string) {
	t.mu.Lock()
	t.used[name] = time.Now()
	t.mu.Unlock()
}

// LastUsed returns the last successful use, zero if never.
func (t *LastUsedTracker) LastUsed(name string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.used[name]
}

// Snapshot copies the whole map.
func (t *LastUsedTracker) Snapshot() map[string]time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]time.Time, len(t.used))
	for k, v := range t.used {
		out[k] = v
	}
	return out
}
