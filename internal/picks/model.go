// Package picks holds the bet domain model: candidates entering the scoring
// pipeline, scored picks leaving it, and the persisted prediction record.
package picks

import (
	"time"
)

// Pick-type tags. Game picks carry their market tag directly; there is no
// umbrella "GAME" tag, and predicates that branch on pick type must list
// the market tags explicitly.
const (
	TypeSpread    = "SPREAD"
	TypeMoneyline = "MONEYLINE"
	TypeTotal     = "TOTAL"
	TypeProp      = "PROP"
	TypeSharp     = "SHARP"
)

// GameMarketTags lists every game-level tag.
func GameMarketTags() []string {
	return []string{TypeSpread, TypeMoneyline, TypeTotal, TypeSharp}
}

// IsGameMarket reports whether tag is a game-level market tag.
func IsGameMarket(tag string) bool {
	switch tag {
	case TypeSpread, TypeMoneyline, TypeTotal, TypeSharp:
		return true
	}
	return false
}

// Candidate is a potential bet before scoring. Produced from raw provider
// data at request time, discarded with the response.
type Candidate struct {
	PickType  string    `json:"pick_type"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Player    string    `json:"player,omitempty"`
	StatType  string    `json:"stat_type,omitempty"`
	Line      float64   `json:"line,omitempty"`
	Selection string    `json:"selection"`
	Side      string    `json:"side"` // home, away, over, under
	OddsUS    int       `json:"odds_american"`
	StartTime time.Time `json:"start_time"`
	EventID   string    `json:"event_id"`
	GameLive  bool      `json:"game_live,omitempty"`
}

// Market returns the lower-case market-or-stat key used for weights lookup.
func (c Candidate) Market() string {
	if c.PickType == TypeProp {
		return c.StatType
	}
	switch c.PickType {
	case TypeSpread:
		return "spread"
	case TypeTotal:
		return "total"
	case TypeMoneyline:
		return "moneyline"
	case TypeSharp:
		return "sharp"
	}
	return ""
}

// Matchup renders "AWAY @ HOME".
func (c Candidate) Matchup() string { return c.AwayTeam + " @ " + c.HomeTeam }

// Provenance records where a signal value came from.
type Provenance struct {
	SourceAPI  string                 `json:"source_api,omitempty"` // empty for internal math
	SourceType string                 `json:"source_type"`          // EXTERNAL or INTERNAL
	Status     string                 `json:"status"`               // SUCCESS, NO_DATA, DISABLED, FALLBACK, ERROR
	CallProof  string                 `json:"call_proof,omitempty"` // cache_hit or http_2xx_delta
	RawInputs  map[string]interface{} `json:"raw_inputs,omitempty"`
}

// Internal builds provenance for pure-math signals.
func Internal(status string, raw map[string]interface{}) Provenance {
	return Provenance{SourceType: "INTERNAL", Status: status, RawInputs: raw}
}

// External builds provenance for API-backed signals.
func External(api, status, proof string, raw map[string]interface{}) Provenance {
	return Provenance{SourceAPI: api, SourceType: "EXTERNAL", Status: status, CallProof: proof, RawInputs: raw}
}

// Contribution is one signal's entry in the per-pick breakdown.
type Contribution struct {
	Value      float64    `json:"value"`
	Triggered  bool       `json:"triggered"`
	Reasons    []string   `json:"reasons,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// EngineResult is one base engine's output.
type EngineResult struct {
	Score         float64                 `json:"score"`
	Reasons       []string                `json:"reasons,omitempty"`
	Contributions map[string]Contribution `json:"contributions,omitempty"`
}

// ScoredPick is a candidate plus everything the scorer produced. Immutable
// once built.
type ScoredPick struct {
	PickID    string    `json:"pick_id"`
	Candidate Candidate `json:"candidate"`

	AIScore       float64 `json:"ai_score"`
	ResearchScore float64 `json:"research_score"`
	EsotericScore float64 `json:"esoteric_score"`
	JarvisScore   float64 `json:"jarvis_score"`
	Base4         float64 `json:"base_4_score"`

	ContextModifier float64 `json:"context_modifier"`

	ConfluenceBoost    float64 `json:"confluence_boost"`
	MSRFBoost          float64 `json:"msrf_boost"` // always 0; MSRF lives inside Jarvis
	JasonSimBoost      float64 `json:"jason_sim_boost"`
	SERPBoost          float64 `json:"serp_boost"`
	EnsembleAdjustment float64 `json:"ensemble_adjustment"`
	LiveAdjustment     float64 `json:"live_adjustment"`
	HookPenalty        float64 `json:"hook_penalty"`
	ExpertConsensus    float64 `json:"expert_consensus_boost"`
	PropCorrelation    float64 `json:"prop_correlation_adjustment"`
	TotalsCalibration  float64 `json:"totals_calibration_adj"`

	TotalScore     float64 `json:"total_score"`
	FinalScore     float64 `json:"final_score"`
	ReconcileDelta float64 `json:"reconcile_delta"`
	Tier           string  `json:"tier"`

	AIReasons       []string `json:"ai_reasons,omitempty"`
	ResearchReasons []string `json:"research_reasons,omitempty"`
	EsotericReasons []string `json:"esoteric_reasons,omitempty"`
	JarvisReasons   []string `json:"jarvis_reasons,omitempty"`

	Signals          map[string]Contribution `json:"signals"`
	IntegrationsUsed []string                `json:"integrations_used"`

	CreatedAt time.Time `json:"created_at"`
}

// EngineScores returns the four engine scores in contract order.
func (p ScoredPick) EngineScores() [4]float64 {
	return [4]float64{p.AIScore, p.ResearchScore, p.EsotericScore, p.JarvisScore}
}

// PredictionRecord is the persisted form of a ScoredPick plus grading
// fields. Append-only; grading appends outcome rows rather than mutating.
type PredictionRecord struct {
	SchemaVersion int     `json:"schema_version"`
	PickID        string  `json:"pick_id"`
	DateET        string  `json:"date_et"`
	Sport         string  `json:"sport"`
	PickType      string  `json:"pick_type"`
	Selection     string  `json:"selection"`
	Market        string  `json:"market"`
	Line          float64 `json:"line,omitempty"`
	OddsUS        int     `json:"odds_american"`
	Player        string  `json:"player,omitempty"`
	StatType      string  `json:"stat_type,omitempty"`
	HomeTeam      string  `json:"home_team"`
	AwayTeam      string  `json:"away_team"`
	EventID       string  `json:"event_id"`

	AIScore       float64 `json:"ai_score"`
	ResearchScore float64 `json:"research_score"`
	EsotericScore float64 `json:"esoteric_score"`
	JarvisScore   float64 `json:"jarvis_score"`
	FinalScore    float64 `json:"final_score"`

	Adjustments    map[string]float64 `json:"adjustments"`
	SignalContribs map[string]float64 `json:"signal_contributions"`

	CreatedAt time.Time `json:"created_at"`
}

// OutcomeRecord is the grading row appended next to a prediction, joined at
// read time by pick id.
type OutcomeRecord struct {
	SchemaVersion int       `json:"schema_version"`
	PickID        string    `json:"pick_id"`
	Outcome       string    `json:"outcome"` // HIT, MISS, PUSH
	ActualValue   float64   `json:"actual_value,omitempty"`
	ErrorMag      float64   `json:"error_magnitude,omitempty"`
	GradedAt      time.Time `json:"graded_at"`
}
