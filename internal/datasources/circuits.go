package datasources

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guards bundles the per-provider circuit breaker and rate limiter. A call
// passes Guards before it spends quota or network time.
type Guards struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

// limiterDefaults caps live call rates per provider; generous for the free
// public APIs, tight for keyed ones.
var limiterDefaults = map[string]rate.Limit{
	"odds":         5,
	"playbook":     5,
	"statsapi":     10,
	"weather":      2,
	"spaceweather": 2,
	"astro":        2,
	"trends":       1,
	"serp":         0.5,
	"news":         1,
	"finance":      1,
}

// NewGuards builds breakers and limiters for every known provider.
func NewGuards() *Guards {
	g := &Guards{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiters: make(map[string]*rate.Limiter),
	}
	for name, lim := range limiterDefaults {
		g.limiters[name] = rate.NewLimiter(lim, int(lim*2)+1)
		g.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 2,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.Requests >= 5 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
			},
		})
	}
	return g
}

func (g *Guards) breaker(provider string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[provider]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: provider})
		g.breakers[provider] = b
	}
	return b
}

// AllowRate reports whether the rate limiter has a token for provider.
// Non-blocking: a denied token means skip the live call, not wait.
func (g *Guards) AllowRate(provider string) bool {
	g.mu.Lock()
	l, ok := g.limiters[provider]
	g.mu.Unlock()
	if !ok {
		return true
	}
	return l.Allow()
}

// Execute runs fn under the provider's circuit breaker.
func (g *Guards) Execute(provider string, fn func() (interface{}, error)) (interface{}, error) {
	return g.breaker(provider).Execute(fn)
}

// CircuitState returns the breaker state string for health payloads.
func (g *Guards) CircuitState(provider string) string {
	return g.breaker(provider).State().String()
}
