package app

import (
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
)

// PickGroup wraps one list of normalized picks.
type PickGroup struct {
	Count int                   `json:"count"`
	Picks []picks.ScoredPickOut `json:"picks"`
}

// ErrorEntry is one data failure surfaced in-band. Handlers never 5xx over
// these.
type ErrorEntry struct {
	Component string `json:"component"`
	Code      string `json:"code"`
	Detail    string `json:"detail"`
}

// Impact summarizes what one integration changed in the response.
type Impact struct {
	NonzeroBoosts int      `json:"nonzero_boosts"`
	Reasons       []string `json:"reasons,omitempty"`
}

// DebugPayload is the optional request-scoped diagnostics block.
type DebugPayload struct {
	Timings            map[string]float64                    `json:"timings"`
	TimedOutComponents []string                              `json:"timed_out_components"`
	IntegrationCalls   map[string]telemetry.IntegrationStats `json:"integration_calls"`
	IntegrationImpact  map[string]Impact                     `json:"integration_impact"`
	RequestProof       map[string]interface{}                `json:"request_proof"`
}

// Response is the best-bets payload.
type Response struct {
	Sport              string        `json:"sport"`
	DateET             string        `json:"date_et"`
	RunTimestampET     string        `json:"run_timestamp_et"`
	GamePicks          PickGroup     `json:"game_picks"`
	Props              PickGroup     `json:"props"`
	Errors             []ErrorEntry  `json:"errors"`
	TimedOutComponents []string      `json:"timed_out_components"`
	Debug              *DebugPayload `json:"debug,omitempty"`
}

// collectErrors folds non-success fetch metas into the errors list. NO_DATA
// and NOT_RELEVANT are normal outcomes, not errors.
func (r *Response) collectErrors(data *fetched) {
	add := func(component string, m providers.Meta) {
		switch m.Status {
		case providers.StatusTimeout, providers.StatusError, providers.StatusSkippedQuota:
			r.Errors = append(r.Errors, ErrorEntry{Component: component, Code: string(m.Status), Detail: m.Detail})
		}
	}
	add("scoreboard", data.gamesMet)
	add("props", data.propsMet)
	add("splits", data.splitMet)
	add("injuries", data.injMet)
	add("kp_index", data.kpMet)
	add("solar_flares", data.flareMet)
	add("moon_phase", data.moonMet)
	add("finance_quote", data.quoteMet)
}

// buildDebug assembles the diagnostics block from the request telemetry and
// the selected picks.
func buildDebug(stats map[string]telemetry.IntegrationStats, timedOut []string, phases map[string]float64, selected []picks.ScoredPick) *DebugPayload {
	d := &DebugPayload{
		Timings:            phases,
		TimedOutComponents: timedOut,
		IntegrationCalls:   stats,
		IntegrationImpact:  map[string]Impact{},
		RequestProof: map[string]interface{}{
			"scoped": "context-carrier",
			"picks":  len(selected),
		},
	}
	for _, p := range selected {
		for _, c := range p.Signals {
			api := c.Provenance.SourceAPI
			if api == "" || c.Value == 0 {
				continue
			}
			imp := d.IntegrationImpact[api]
			imp.NonzeroBoosts++
			for _, reason := range c.Reasons {
				if len(imp.Reasons) < 5 && !containsFold(imp.Reasons, reason) {
					imp.Reasons = append(imp.Reasons, reason)
				}
			}
			d.IntegrationImpact[api] = imp
		}
	}
	return d
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
