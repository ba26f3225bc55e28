// Package registry is the single source of truth for external integrations:
// which env variables configure them, whether they are required, which
// engine they feed, and how to probe their liveness.
package registry

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
)

// ProbeStatus classifies an integration after its liveness probe.
type ProbeStatus string

const (
	StatusValidated   ProbeStatus = "VALIDATED"    // probe succeeded
	StatusConfigured  ProbeStatus = "CONFIGURED"   // key present, probe not run
	StatusNotRelevant ProbeStatus = "NOT_RELEVANT" // gated off by relevance, not by a flag
	StatusUnavailable ProbeStatus = "UNAVAILABLE"  // probe failed with a network-shaped error
	StatusError       ProbeStatus = "ERROR"        // probe failed with an unexpected error
	StatusMissing     ProbeStatus = "MISSING"      // required env absent
)

// ProbeFunc is a cheap call with a deterministic interpretation.
type ProbeFunc func(ctx context.Context) error

// Definition describes one integration.
type Definition struct {
	Name       string    `json:"name"`
	PrimaryEnv string    `json:"primary_env"`
	AliasEnvs  []string  `json:"alias_envs,omitempty"`
	Required   bool      `json:"required"`
	Module     string    `json:"module"`
	Engine     string    `json:"engine"`
	AuthType   string    `json:"auth_type"` // "bearer" or "none"
	Probe      ProbeFunc `json:"-"`
}

// Public reports whether the integration needs no key.
func (d Definition) Public() bool { return d.AuthType == "none" }

// EnvValue resolves the integration's key from primary or alias variables.
func (d Definition) EnvValue() string {
	if v := os.Getenv(d.PrimaryEnv); v != "" {
		return v
	}
	for _, alias := range d.AliasEnvs {
		if v := os.Getenv(alias); v != "" {
			return v
		}
	}
	return ""
}

// Registry holds the definition table, read-only at runtime.
type Registry struct {
	defs     []Definition
	lastUsed *telemetry.LastUsedTracker
}

// Definitions is the canonical integration table. Scripts-only variables are
// registered too so the env-drift scan sees the full surface.
func Definitions() []Definition {
	return []Definition{
		{Name: "odds", PrimaryEnv: "ODDS_API_KEY", AliasEnvs: []string{"THE_ODDS_API_KEY"}, Required: true, Module: "providers/odds", Engine: "research", AuthType: "bearer"},
		{Name: "playbook", PrimaryEnv: "PLAYBOOK_API_KEY", Required: true, Module: "providers/playbook", Engine: "research", AuthType: "bearer"},
		{Name: "statsapi", PrimaryEnv: "STATS_API_KEY", AliasEnvs: []string{"BALLDONTLIE_API_KEY"}, Required: true, Module: "providers/statsapi", Engine: "ai", AuthType: "bearer"},
		{Name: "weather", PrimaryEnv: "WEATHER_API_KEY", AliasEnvs: []string{"OPENWEATHER_API_KEY"}, Required: false, Module: "providers/weather", Engine: "context", AuthType: "bearer"},
		{Name: "spaceweather", PrimaryEnv: "", Required: false, Module: "providers/spaceweather", Engine: "esoteric", AuthType: "none"},
		{Name: "astro", PrimaryEnv: "", Required: false, Module: "providers/astro", Engine: "esoteric", AuthType: "none"},
		{Name: "trends", PrimaryEnv: "TRENDS_API_KEY", Required: false, Module: "providers/trends", Engine: "esoteric", AuthType: "bearer"},
		{Name: "serp", PrimaryEnv: "SERP_API_KEY", AliasEnvs: []string{"SERPAPI_KEY"}, Required: false, Module: "providers/trends", Engine: "boosts", AuthType: "bearer"},
		{Name: "news", PrimaryEnv: "NEWS_API_KEY", Required: false, Module: "providers/news", Engine: "research", AuthType: "bearer"},
		{Name: "finance", PrimaryEnv: "FINANCE_API_KEY", AliasEnvs: []string{"ALPHAVANTAGE_API_KEY"}, Required: false, Module: "providers/news", Engine: "esoteric", AuthType: "bearer"},
		// Scripts-only variables, registered for the drift scan.
		{Name: "volume_mount", PrimaryEnv: "VOLUME_MOUNT", Required: true, Module: "persistence", Engine: "", AuthType: "none"},
		{Name: "demo_mode", PrimaryEnv: "DEMO_MODE", Required: false, Module: "httpapi", Engine: "", AuthType: "none"},
	}
}

// New builds a registry over the canonical table.
func New(lastUsed *telemetry.LastUsedTracker) *Registry {
	return &Registry{defs: Definitions(), lastUsed: lastUsed}
}

// SetProbe attaches a probe to a named integration.
func (r *Registry) SetProbe(name string, probe ProbeFunc) {
	for i := range r.defs {
		if r.defs[i].Name == name {
			r.defs[i].Probe = probe
		}
	}
}

// Lookup returns the definition for a name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	for _, d := range r.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// All returns the definition table.
func (r *Registry) All() []Definition { return r.defs }

// IntegrationHealth is the per-integration entry of the health payload.
// Public integrations carry auth_type "none" and no key_present field.
type IntegrationHealth struct {
	Name       string      `json:"name"`
	Status     ProbeStatus `json:"status"`
	Required   bool        `json:"required"`
	Engine     string      `json:"engine,omitempty"`
	AuthType   string      `json:"auth_type"`
	KeyPresent *bool       `json:"key_present,omitempty"`
	EnvVar     string      `json:"env_var,omitempty"`
	LastUsedAt string      `json:"last_used_at,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Classify probes one integration. FEATURE_DISABLED is not a status this
// table can produce: relevance gating must surface as NOT_RELEVANT.
func (r *Registry) Classify(ctx context.Context, d Definition) IntegrationHealth {
	h := IntegrationHealth{
		Name:     d.Name,
		Required: d.Required,
		Engine:   d.Engine,
		AuthType: d.AuthType,
	}
	if !d.Public() {
		present := d.EnvValue() != ""
		h.KeyPresent = &present
		h.EnvVar = maskEnvName(d.PrimaryEnv)
		if !present {
			if d.Required {
				h.Status = StatusMissing
				h.Reason = "required key absent"
			} else {
				h.Status = StatusNotRelevant
				h.Reason = "optional integration unconfigured"
			}
			return h
		}
	}
	if lu := r.lastUsed.LastUsed(d.Name); !lu.IsZero() {
		h.LastUsedAt = lu.UTC().Format(time.RFC3339)
	}
	if d.Probe == nil {
		h.Status = StatusConfigured
		return h
	}
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := d.Probe(probeCtx); err != nil {
		if probeCtx.Err() != nil || isNetworkShaped(err) {
			h.Status = StatusUnavailable
		} else {
			h.Status = StatusError
		}
		h.Reason = err.Error()
		return h
	}
	h.Status = StatusValidated
	return h
}

// ClassifyAll probes every integration.
func (r *Registry) ClassifyAll(ctx context.Context) []IntegrationHealth {
	out := make([]IntegrationHealth, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, r.Classify(ctx, d))
	}
	return out
}

// EnvDrift returns env variables with a recognized prefix that no
// definition claims. Passing means the registry is the complete map.
func (r *Registry) EnvDrift(environ []string) []string {
	known := make(map[string]bool)
	for _, d := range r.defs {
		if d.PrimaryEnv != "" {
			known[d.PrimaryEnv] = true
		}
		for _, a := range d.AliasEnvs {
			known[a] = true
		}
	}
	var drift []string
	for _, kv := range environ {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if strings.HasSuffix(name, "_API_KEY") && !known[name] {
			drift = append(drift, name)
		}
	}
	return drift
}

// maskEnvName shows the variable name but never hints at its value length.
func maskEnvName(name string) string {
	if name == "" {
		return ""
	}
	return name
}

func isNetworkShaped(err error) bool {
	msg := err.Error()
	for _, frag := range []string{"timeout", "connection", "refused", "no such host", "http 5"} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
