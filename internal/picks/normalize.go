package picks

import (
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// ScoredPickOut is the fixed public output contract. Every boost field is
// surfaced even when zero, every display time is ET-formatted, and no UTC
// or telemetry internals leak through.
type ScoredPickOut struct {
	PickID       string  `json:"pick_id"`
	Sport        string  `json:"sport"`
	Matchup      string  `json:"matchup"`
	Selection    string  `json:"selection"`
	SelectionHA  string  `json:"selection_home_away"`
	Market       string  `json:"market"`
	PickType     string  `json:"pick_type"`
	Line         float64 `json:"line"`
	OddsAmerican int     `json:"odds_american"`
	Player       string  `json:"player,omitempty"`
	StatType     string  `json:"stat_type,omitempty"`
	StartTimeET  string  `json:"start_time_et"`

	AIScore       float64 `json:"ai_score"`
	ResearchScore float64 `json:"research_score"`
	EsotericScore float64 `json:"esoteric_score"`
	JarvisScore   float64 `json:"jarvis_score"`
	Base4Score    float64 `json:"base_4_score"`

	ContextModifier float64 `json:"context_modifier"`

	ConfluenceBoost    float64 `json:"confluence_boost"`
	MSRFBoost          float64 `json:"msrf_boost"`
	JasonSimBoost      float64 `json:"jason_sim_boost"`
	SERPBoost          float64 `json:"serp_boost"`
	EnsembleAdjustment float64 `json:"ensemble_adjustment"`
	LiveAdjustment     float64 `json:"live_adjustment"`
	HookPenalty        float64 `json:"hook_penalty"`
	ExpertConsensus    float64 `json:"expert_consensus_boost"`
	PropCorrelation    float64 `json:"prop_correlation_adjustment"`
	TotalsCalibration  float64 `json:"totals_calibration_adj"`

	FinalScore float64 `json:"final_score"`
	Tier       string  `json:"tier"`

	AIReasons       []string `json:"ai_reasons"`
	ResearchReasons []string `json:"research_reasons"`
	EsotericReasons []string `json:"esoteric_reasons"`
	JarvisReasons   []string `json:"jarvis_reasons"`

	PerSignalProvenance map[string]ProvenanceOut `json:"per_signal_provenance"`
}

// ProvenanceOut is the public projection of a signal's provenance.
type ProvenanceOut struct {
	Value      float64                `json:"value"`
	Triggered  bool                   `json:"triggered"`
	SourceAPI  string                 `json:"source_api,omitempty"`
	SourceType string                 `json:"source_type"`
	Status     string                 `json:"status"`
	CallProof  string                 `json:"call_proof,omitempty"`
	RawInputs  map[string]interface{} `json:"raw_inputs,omitempty"`
}

// Normalize projects a ScoredPick onto the output contract.
func Normalize(p ScoredPick) ScoredPickOut {
	out := ScoredPickOut{
		PickID:       p.PickID,
		Sport:        p.Candidate.Sport,
		Matchup:      p.Candidate.Matchup(),
		Selection:    p.Candidate.Selection,
		SelectionHA:  p.Candidate.Side,
		Market:       p.Candidate.Market(),
		PickType:     p.Candidate.PickType,
		Line:         p.Candidate.Line,
		OddsAmerican: p.Candidate.OddsUS,
		Player:       p.Candidate.Player,
		StatType:     p.Candidate.StatType,
		StartTimeET:  timeauth.FormatETTimestamp(p.Candidate.StartTime),

		AIScore:       p.AIScore,
		ResearchScore: p.ResearchScore,
		EsotericScore: p.EsotericScore,
		JarvisScore:   p.JarvisScore,
		Base4Score:    p.Base4,

		ContextModifier: p.ContextModifier,

		ConfluenceBoost:    p.ConfluenceBoost,
		MSRFBoost:          p.MSRFBoost,
		JasonSimBoost:      p.JasonSimBoost,
		SERPBoost:          p.SERPBoost,
		EnsembleAdjustment: p.EnsembleAdjustment,
		LiveAdjustment:     p.LiveAdjustment,
		HookPenalty:        p.HookPenalty,
		ExpertConsensus:    p.ExpertConsensus,
		PropCorrelation:    p.PropCorrelation,
		TotalsCalibration:  p.TotalsCalibration,

		FinalScore: p.FinalScore,
		Tier:       p.Tier,

		AIReasons:       emptyNotNil(p.AIReasons),
		ResearchReasons: emptyNotNil(p.ResearchReasons),
		EsotericReasons: emptyNotNil(p.EsotericReasons),
		JarvisReasons:   emptyNotNil(p.JarvisReasons),

		PerSignalProvenance: make(map[string]ProvenanceOut, len(p.Signals)),
	}
	for name, c := range p.Signals {
		out.PerSignalProvenance[name] = ProvenanceOut{
			Value:      c.Value,
			Triggered:  c.Triggered,
			SourceAPI:  c.Provenance.SourceAPI,
			SourceType: c.Provenance.SourceType,
			Status:     c.Provenance.Status,
			CallProof:  c.Provenance.CallProof,
			RawInputs:  c.Provenance.RawInputs,
		}
	}
	return out
}

// ToRecord projects a ScoredPick onto the persisted prediction record.
func ToRecord(p ScoredPick, dateET string) PredictionRecord {
	rec := PredictionRecord{
		SchemaVersion: 2,
		PickID:        p.PickID,
		DateET:        dateET,
		Sport:         p.Candidate.Sport,
		PickType:      p.Candidate.PickType,
		Selection:     p.Candidate.Selection,
		Market:        p.Candidate.Market(),
		Line:          p.Candidate.Line,
		OddsUS:        p.Candidate.OddsUS,
		Player:        p.Candidate.Player,
		StatType:      p.Candidate.StatType,
		HomeTeam:      p.Candidate.HomeTeam,
		AwayTeam:      p.Candidate.AwayTeam,
		EventID:       p.Candidate.EventID,
		AIScore:       p.AIScore,
		ResearchScore: p.ResearchScore,
		EsotericScore: p.EsotericScore,
		JarvisScore:   p.JarvisScore,
		FinalScore:    p.FinalScore,
		Adjustments: map[string]float64{
			"context_modifier":            p.ContextModifier,
			"confluence_boost":            p.ConfluenceBoost,
			"msrf_boost":                  p.MSRFBoost,
			"jason_sim_boost":             p.JasonSimBoost,
			"serp_boost":                  p.SERPBoost,
			"ensemble_adjustment":         p.EnsembleAdjustment,
			"live_adjustment":             p.LiveAdjustment,
			"hook_penalty":                p.HookPenalty,
			"expert_consensus_boost":      p.ExpertConsensus,
			"prop_correlation_adjustment": p.PropCorrelation,
			"totals_calibration_adj":      p.TotalsCalibration,
		},
		SignalContribs: make(map[string]float64, len(p.Signals)),
		CreatedAt:      p.CreatedAt,
	}
	for name, c := range p.Signals {
		rec.SignalContribs[name] = c.Value
	}
	return rec
}

func emptyNotNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
