// Package score holds the single closed-form aggregation formula. Every cap
// is enforced inside Aggregate, not at call sites, so the reconciliation
// invariant can be checked from the output alone.
package score

import (
	"fmt"
	"math"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
)

// Inputs are the raw terms entering the formula. Callers pass unclamped
// values; Aggregate clamps each at its point of use.
type Inputs struct {
	AI       float64
	Research float64
	Esoteric float64
	Jarvis   float64

	ContextModifier float64

	Confluence   float64
	MSRFExternal float64 // must be zero: MSRF lives inside Jarvis
	JasonSim     float64
	SERPTotal    float64

	EnsembleAdj       float64
	LiveAdj           float64
	TotalsCalibration float64
	HookPenalty       float64
	ExpertConsensus   float64
	PropCorrelation   float64
}

// Breakdown is the reconcilable output: every clamped term plus the final.
type Breakdown struct {
	AI       float64 `json:"ai"`
	Research float64 `json:"research"`
	Esoteric float64 `json:"esoteric"`
	Jarvis   float64 `json:"jarvis"`
	Base4    float64 `json:"base_4"`

	ContextModifier float64 `json:"context_modifier"`

	Confluence   float64 `json:"confluence"`
	MSRFExternal float64 `json:"msrf_external"`
	JasonSim     float64 `json:"jason_sim"`
	SERPTotal    float64 `json:"serp_total"`
	BoostsRaw    float64 `json:"boosts_raw"`
	BoostsCapped float64 `json:"boosts_capped"`

	EnsembleAdj       float64 `json:"ensemble_adj"`
	LiveAdj           float64 `json:"live_adj"`
	TotalsCalibration float64 `json:"totals_calibration"`
	HookPenalty       float64 `json:"hook_penalty"`
	ExpertConsensus   float64 `json:"expert_consensus"`
	PropCorrelation   float64 `json:"prop_correlation"`

	Total          float64 `json:"total"`
	Final          float64 `json:"final"`
	ReconcileDelta float64 `json:"reconcile_delta"`
}

// Aggregate computes the locked formula:
//
//	base   = ai*0.25 + research*0.35 + esoteric*0.15 + jarvis*0.25
//	boosts = min(confluence + msrf_ext + jason + serp, TOTAL_BOOST_CAP)
//	final  = clamp(base + context + boosts + ensemble + live + totals
//	               + hook + expert + prop_corr, 0, 10)
func Aggregate(in Inputs) Breakdown {
	var b Breakdown
	b.AI = contract.ClampScore(in.AI)
	b.Research = contract.ClampScore(in.Research)
	b.Esoteric = contract.ClampScore(in.Esoteric)
	b.Jarvis = contract.ClampScore(in.Jarvis)

	b.Base4 = b.AI*contract.WeightAI +
		b.Research*contract.WeightResearch +
		b.Esoteric*contract.WeightEsoteric +
		b.Jarvis*contract.WeightJarvis

	b.ContextModifier = contract.Clamp(in.ContextModifier,
		-contract.ContextModifierCap, contract.ContextModifierCap)

	b.Confluence = contract.Clamp(in.Confluence, 0, contract.ConfluenceBoostCap)
	// MSRF is internal to Jarvis in the current configuration; an external
	// term here would double-count it.
	b.MSRFExternal = 0.0
	b.JasonSim = contract.Clamp(in.JasonSim, 0, contract.JasonSimBoostCap)
	b.SERPTotal = contract.Clamp(in.SERPTotal, 0, contract.SERPTotalBoostCap)

	b.BoostsRaw = b.Confluence + b.MSRFExternal + b.JasonSim + b.SERPTotal
	b.BoostsCapped = math.Min(b.BoostsRaw, contract.TotalBoostCap)

	b.EnsembleAdj = contract.Clamp(in.EnsembleAdj, -contract.EnsembleAdjStep, contract.EnsembleAdjStep)
	b.LiveAdj = contract.Clamp(in.LiveAdj, -contract.LiveAdjustmentCap, contract.LiveAdjustmentCap)
	b.TotalsCalibration = contract.Clamp(in.TotalsCalibration,
		-contract.TotalsCalibrationCap, contract.TotalsCalibrationCap)
	b.HookPenalty = contract.Clamp(in.HookPenalty, contract.HookPenaltyFloor, 0)
	b.ExpertConsensus = contract.Clamp(in.ExpertConsensus, 0, contract.ExpertConsensusCap)
	b.PropCorrelation = contract.Clamp(in.PropCorrelation,
		-contract.PropCorrelationCap, contract.PropCorrelationCap)

	b.Total = b.Base4 + b.ContextModifier + b.BoostsCapped +
		b.EnsembleAdj + b.LiveAdj + b.TotalsCalibration +
		b.HookPenalty + b.ExpertConsensus + b.PropCorrelation
	b.Final = contract.ClampScore(b.Total)

	b.ReconcileDelta = math.Abs(b.Final - contract.ClampScore(b.reassemble()))
	return b
}

// reassemble recomputes the total from the breakdown fields, the same walk
// a reader of the output payload would take.
func (b Breakdown) reassemble() float64 {
	base := b.AI*contract.WeightAI + b.Research*contract.WeightResearch +
		b.Esoteric*contract.WeightEsoteric + b.Jarvis*contract.WeightJarvis
	boosts := math.Min(b.Confluence+b.MSRFExternal+b.JasonSim+b.SERPTotal, contract.TotalBoostCap)
	return base + b.ContextModifier + boosts + b.EnsembleAdj + b.LiveAdj +
		b.TotalsCalibration + b.HookPenalty + b.ExpertConsensus + b.PropCorrelation
}

// Validate asserts the output invariants.
func (b Breakdown) Validate() error {
	for name, v := range map[string]float64{
		"ai": b.AI, "research": b.Research, "esoteric": b.Esoteric,
		"jarvis": b.Jarvis, "final": b.Final,
	} {
		if v < contract.ScoreMin || v > contract.ScoreMax {
			return fmt.Errorf("score: %s %.3f outside [0,10]", name, v)
		}
	}
	if b.MSRFExternal != 0 {
		return fmt.Errorf("score: external MSRF %.3f must be zero", b.MSRFExternal)
	}
	if b.ReconcileDelta > contract.ReconcileTolerance {
		return fmt.Errorf("score: reconcile delta %.4f exceeds %.2f",
			b.ReconcileDelta, contract.ReconcileTolerance)
	}
	return nil
}
