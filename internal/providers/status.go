// Package providers contains one client per external integration. Every
// client is fail-soft: it never returns an error, only a Meta carrying a
// diagnostic status alongside a well-formed zero value.
package providers

// Status classifies the outcome of a provider call.
type Status string

const (
	StatusSuccess      Status = "SUCCESS"
	StatusNoData       Status = "NO_DATA"
	StatusTimeout      Status = "TIMEOUT"
	StatusError        Status = "ERROR"
	StatusSkippedQuota Status = "SKIPPED_QUOTA"
	StatusDisabled     Status = "DISABLED"
	StatusNotRelevant  Status = "NOT_RELEVANT"
	StatusFallback     Status = "FALLBACK"
)

// Meta describes how a value was obtained. It is the raw material for the
// per-signal provenance records.
type Meta struct {
	Provider  string  `json:"provider"`
	Status    Status  `json:"status"`
	FromCache bool    `json:"from_cache"`
	LatencyMS float64 `json:"latency_ms"`
	Detail    string  `json:"detail,omitempty"`
	Shadow    bool    `json:"shadow,omitempty"`
}

// OK reports whether the call produced usable data.
func (m Meta) OK() bool { return m.Status == StatusSuccess || m.Status == StatusFallback }

// CallProof renders the proof tag used in provenance records.
func (m Meta) CallProof() string {
	if m.FromCache {
		return "cache_hit"
	}
	if m.Status == StatusSuccess {
		return "http_2xx_delta"
	}
	return ""
}
