package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/datasources"
	"github.com/peterostrander2/ai-betting-backend/internal/secrets"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
)

// DefaultTimeout is the hard per-call ceiling unless a client overrides it.
const DefaultTimeout = 2 * time.Second

// Deps is the shared infrastructure injected into every client.
type Deps struct {
	Cache     *datasources.Cache
	Quotas    *datasources.QuotaAccountant
	Guards    *datasources.Guards
	LastUsed  *telemetry.LastUsedTracker
	Sanitizer *secrets.Sanitizer
	Logger    zerolog.Logger
	HTTP      *http.Client
}

// base carries per-provider state on top of Deps.
type base struct {
	deps    Deps
	name    string
	baseURL string
	apiKey  string
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex
	shadow bool
}

func newBase(deps Deps, name, baseURL, apiKey string) base {
	if deps.HTTP == nil {
		deps.HTTP = &http.Client{}
	}
	if apiKey != "" && deps.Sanitizer != nil {
		deps.Sanitizer.RegisterEnvValues(apiKey)
	}
	return base{
		deps:    deps,
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		log:     deps.Logger.With().Str("provider", name).Logger(),
	}
}

// SetTimeout overrides the per-call timeout.
func (b *base) SetTimeout(d time.Duration) { b.timeout = d }

// SetShadow flips shadow mode: calls run and log normally but callers must
// zero the scoring impact when Meta.Shadow is set.
func (b *base) SetShadow(on bool) {
	b.mu.Lock()
	b.shadow = on
	b.mu.Unlock()
}

func (b *base) isShadow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shadow
}

// Name returns the integration name used in telemetry and the registry.
func (b *base) Name() string { return b.name }

// fetchJSON performs one guarded, cached, quota-accounted GET and decodes
// the body into out. It never returns an error; the Meta tells the story.
// Secrets travel in headers, never in the URL.
func (b *base) fetchJSON(ctx context.Context, route, path string, params map[string]string, out interface{}) Meta {
	meta := Meta{Provider: b.name, Shadow: b.isShadow()}
	rt := telemetry.FromContext(ctx)

	key := datasources.Key(b.name, route, params)
	if cached, ok := b.deps.Cache.Get(key); ok {
		if raw, ok := cached.([]byte); ok && json.Unmarshal(raw, out) == nil {
			meta.Status = StatusSuccess
			meta.FromCache = true
			rt.RecordCacheHit(b.name)
			telemetry.ProviderCacheHits.WithLabelValues(b.name).Inc()
			b.deps.LastUsed.Touch(b.name)
			return meta
		}
	}

	if !b.deps.Quotas.Allow(b.name) {
		meta.Status = StatusSkippedQuota
		telemetry.QuotaSkips.WithLabelValues(b.name).Inc()
		rt.RecordCall(b.name, false, 0, string(meta.Status), "quota exhausted")
		return meta
	}
	if !b.deps.Guards.AllowRate(b.name) {
		meta.Status = StatusError
		meta.Detail = "rate limited"
		rt.RecordCall(b.name, false, 0, string(meta.Status), meta.Detail)
		return meta
	}

	started := time.Now()
	raw, err := b.deps.Guards.Execute(b.name, func() (interface{}, error) {
		return b.doGet(ctx, path, params)
	})
	latency := time.Since(started)
	meta.LatencyMS = float64(latency.Milliseconds())

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			meta.Status = StatusTimeout
		default:
			meta.Status = StatusError
			meta.Detail = b.scrub(err.Error())
		}
		rt.RecordCall(b.name, false, latency, string(meta.Status), meta.Detail)
		telemetry.ProviderCalls.WithLabelValues(b.name, string(meta.Status)).Inc()
		b.log.Warn().Str("route", route).Str("status", string(meta.Status)).Msg("provider call failed soft")
		return meta
	}

	body := raw.([]byte)
	b.deps.Quotas.Record(b.name)
	telemetry.ProviderCalls.WithLabelValues(b.name, "SUCCESS").Inc()
	telemetry.ProviderLatency.WithLabelValues(b.name).Observe(latency.Seconds())

	if len(body) == 0 {
		meta.Status = StatusNoData
		rt.RecordCall(b.name, true, latency, string(meta.Status), "")
		return meta
	}
	if err := json.Unmarshal(body, out); err != nil {
		meta.Status = StatusError
		meta.Detail = "decode: " + b.scrub(err.Error())
		rt.RecordCall(b.name, false, latency, string(meta.Status), meta.Detail)
		return meta
	}

	b.deps.Cache.Set(key, route, body)
	meta.Status = StatusSuccess
	rt.RecordCall(b.name, true, latency, string(meta.Status), "")
	b.deps.LastUsed.Touch(b.name)
	return meta
}

// doGet issues the HTTP GET under the per-call timeout.
func (b *base) doGet(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	u, err := url.Parse(b.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("bad url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.deps.HTTP.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func (b *base) scrub(s string) string {
	if b.deps.Sanitizer == nil {
		return s
	}
	return b.deps.Sanitizer.Scrub(s)
}
