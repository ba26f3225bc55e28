package signals

import (
	"fmt"
	"math"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// BoostSet is every post-base additive term, each bounded at its point of
// application. Every term surfaces as its own output field; a hidden
// modification would break the reconciliation invariant.
type BoostSet struct {
	Confluence        float64
	JasonSim          float64
	SERPTotal         float64
	EnsembleAdj       float64
	LiveAdj           float64
	HookPenalty       float64
	ExpertConsensus   float64
	PropCorrelation   float64
	TotalsCalibration float64

	Reasons       []string
	Contributions map[string]picks.Contribution
}

// ComputeBoosts derives the post-base terms from the engine results.
func ComputeBoosts(in Inputs, ai, research, esoteric picks.EngineResult, jarvis JarvisResult) BoostSet {
	b := BoostSet{Contributions: map[string]picks.Contribution{}}

	b.confluence(ai.Score, research.Score, esoteric.Score, jarvis.Score)
	b.jasonSim(in)
	b.serp(in)
	b.ensemble(in, ai.Score)
	b.live(in)
	b.hook(in)
	b.expert(in)
	b.propCorrelation(in)
	b.totalsCalibration(in)
	return b
}

// confluence rewards strong multi-engine agreement, with a harmonic
// convergence bonus when research and esoteric both clear 8.0.
func (b *BoostSet) confluence(ai, research, esoteric, jarvis float64) {
	strong := 0
	for _, s := range []float64{ai, research, esoteric, jarvis} {
		if s >= 7.0 {
			strong++
		}
	}
	value := 0.0
	var reasons []string
	if strong >= 3 {
		value = 0.5
		reasons = append(reasons, fmt.Sprintf("Confluence: %d engines at 7.0+", strong))
	} else if strong == 2 {
		value = 0.25
	}
	if research >= 8.0 && esoteric >= 8.0 {
		value += contract.HarmonicConvergenceBonus
		reasons = append(reasons, "Harmonic convergence: research and esoteric both 8.0+")
	}
	value = contract.Clamp(value, 0, contract.ConfluenceBoostCap)
	b.Confluence = value
	b.addReasons(reasons)
	b.Contributions["confluence"] = picks.Contribution{
		Value: value, Triggered: value > 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"strong_engines": strong,
		}),
	}
}

// jasonSim converts the Monte-Carlo win probability into a bounded boost.
func (b *BoostSet) jasonSim(in Inputs) {
	if in.SimRuns == 0 {
		b.Contributions["jason_sim"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	edge := in.SimWinProb - 0.5
	value := contract.Clamp(edge*2.0, 0, contract.JasonSimBoostCap)
	var reasons []string
	if value > 0 {
		reasons = []string{fmt.Sprintf("Monte-Carlo edge: %.0f%% win probability over %d runs", in.SimWinProb*100, in.SimRuns)}
	}
	b.JasonSim = value
	b.addReasons(reasons)
	b.Contributions["jason_sim"] = picks.Contribution{
		Value: value, Triggered: value > 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"win_prob": in.SimWinProb, "runs": in.SimRuns,
		}),
	}
}

// serp derives the five-family search boost, total-capped. Quota exhaustion
// arrives as SKIPPED_QUOTA and contributes zero.
func (b *BoostSet) serp(in Inputs) {
	status := statusOf(in.SERP.Meta)
	if status != "SUCCESS" {
		b.Contributions["serp"] = picks.Contribution{Provenance: external(in.SERP.Meta, nil)}
		return
	}
	headlines := in.SERP.Value.Headlines
	team := strings.ToLower(in.Cand.Selection)
	sub := make(map[string]float64, 5)

	// Five sub-boosts, one per engine family plus momentum.
	mentions := 0
	positive := 0
	for _, h := range headlines {
		lh := strings.ToLower(h)
		if team != "" && strings.Contains(lh, team) {
			mentions++
		}
		for _, word := range []string{"streak", "dominant", "hot", "surge", "edge"} {
			if strings.Contains(lh, word) {
				positive++
				break
			}
		}
	}
	sub["visibility"] = contract.Clamp(float64(mentions)*0.05, 0, contract.SERPSubBoostCap)
	sub["sentiment"] = contract.Clamp(float64(positive)*0.05, 0, contract.SERPSubBoostCap)
	sub["volume"] = contract.Clamp(float64(in.SERP.Value.TotalResults)/1e7, 0, contract.SERPSubBoostCap)
	if statusOf(in.News.Meta) == "SUCCESS" && !in.News.Meta.Shadow {
		sub["news_freshness"] = contract.Clamp(float64(len(in.News.Value))*0.02, 0, contract.SERPSubBoostCap)
	}
	if statusOf(in.Quote.Meta) == "SUCCESS" && !in.Quote.Meta.Shadow && in.Quote.Value.ChangePct > 1.0 {
		sub["market_mood"] = contract.Clamp(in.Quote.Value.ChangePct/20, 0, contract.SERPSubBoostCap)
	}

	total := 0.0
	for _, v := range sub {
		total += v
	}
	total = contract.Clamp(total, 0, contract.SERPTotalBoostCap)
	var reasons []string
	if total > 0.1 {
		reasons = []string{fmt.Sprintf("SERP composite %.2f across %d families", total, len(sub))}
	}
	raw := map[string]interface{}{"sub_boosts": sub}
	c := shadowZero(picks.Contribution{
		Value: total, Triggered: total > 0, Reasons: reasons,
		Provenance: external(in.SERP.Meta, raw),
	}, in.SERP.Meta)
	b.SERPTotal = c.Value
	b.addReasons(c.Reasons)
	b.Contributions["serp"] = c
}

// ensemble applies the discrete ±0.5 agreement step.
func (b *BoostSet) ensemble(in Inputs, aiScore float64) {
	if !in.EnsembleAvailable {
		b.Contributions["ensemble_adj"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	value := 0.0
	var reasons []string
	if aiScore >= 7.0 {
		value = contract.EnsembleAdjStep
		reasons = []string{"Ensemble agreement step"}
	} else if aiScore <= 3.0 {
		value = -contract.EnsembleAdjStep
		reasons = []string{"Ensemble disagreement step"}
	}
	b.EnsembleAdj = value
	b.addReasons(reasons)
	b.Contributions["ensemble_adj"] = picks.Contribution{
		Value: value, Triggered: value != 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{"ai_score": aiScore}),
	}
}

// live applies the in-play adjustment when the game is underway.
func (b *BoostSet) live(in Inputs) {
	if !in.Cand.GameLive || in.Game.Status != "LIVE" {
		b.Contributions["live_adj"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	margin := float64(in.Game.HomeScore - in.Game.AwayScore)
	if in.Cand.Side == "away" {
		margin = -margin
	}
	value := contract.Clamp(margin/20.0, -contract.LiveAdjustmentCap, contract.LiveAdjustmentCap)
	var reasons []string
	if value != 0 {
		reasons = []string{fmt.Sprintf("Live margin adjustment %.2f", value)}
	}
	b.LiveAdj = value
	b.addReasons(reasons)
	b.Contributions["live_adj"] = picks.Contribution{
		Value: value, Triggered: value != 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{"margin": margin, "period": in.Game.Period}),
	}
}

// hook penalizes spreads sitting on key-number hooks. Never positive.
func (b *BoostSet) hook(in Inputs) {
	if in.Cand.PickType != picks.TypeSpread {
		b.Contributions["hook_penalty"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	line := math.Abs(in.Cand.Line)
	frac := line - math.Floor(line)
	value := 0.0
	var reasons []string
	// Laying the hook through a key number (3 or 7) is the bad side.
	if frac == 0.5 {
		for _, key := range []float64{3, 7} {
			if math.Floor(line) == key {
				value = -0.25
				reasons = []string{fmt.Sprintf("Hook through key number %g", key)}
			}
		}
	}
	value = contract.Clamp(value, contract.HookPenaltyFloor, 0)
	b.HookPenalty = value
	b.addReasons(reasons)
	b.Contributions["hook_penalty"] = picks.Contribution{
		Value: value, Triggered: value != 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{"line": in.Cand.Line}),
	}
}

// expert applies the consensus boost; shadow mode computes and logs but
// contributes zero.
func (b *BoostSet) expert(in Inputs) {
	status := statusOf(in.ExpertConsensus.Meta)
	if status != "SUCCESS" {
		b.Contributions["expert_consensus"] = picks.Contribution{Provenance: external(in.ExpertConsensus.Meta, nil)}
		return
	}
	pct := in.ExpertConsensus.Value
	computed := 0.0
	if pct >= 70 {
		computed = contract.Clamp((pct-50)/100, 0, contract.ExpertConsensusCap)
	}
	value := computed
	var reasons []string
	if in.ExpertShadow {
		value = 0
		reasons = []string{fmt.Sprintf("Expert consensus %.0f%% (shadow mode, no impact)", pct)}
	} else if computed > 0 {
		reasons = []string{fmt.Sprintf("Expert consensus %.0f%% on this side", pct)}
	}
	b.ExpertConsensus = value
	b.addReasons(reasons)
	b.Contributions["expert_consensus"] = picks.Contribution{
		Value: value, Triggered: value > 0, Reasons: reasons,
		Provenance: external(in.ExpertConsensus.Meta, map[string]interface{}{
			"consensus_pct": pct, "shadow": in.ExpertShadow, "computed": computed,
		}),
	}
}

// propCorrelation adjusts props whose game context leans the same way.
func (b *BoostSet) propCorrelation(in Inputs) {
	if in.Cand.PickType != picks.TypeProp {
		b.Contributions["prop_correlation"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	value := 0.0
	var reasons []string
	// Over props correlate with fast pace; unders with elite defense.
	if in.TeamPace > 0 && in.OppPace > 0 {
		combined := in.TeamPace + in.OppPace
		if in.Cand.Side == "over" && combined > 205 {
			value = 0.2
			reasons = []string{"Prop correlated with up-tempo game script"}
		} else if in.Cand.Side == "under" && in.DefRank > 0 && in.DefRank <= 5 {
			value = 0.2
			reasons = []string{"Under correlated with elite defense"}
		}
	}
	value = contract.Clamp(value, -contract.PropCorrelationCap, contract.PropCorrelationCap)
	b.PropCorrelation = value
	b.addReasons(reasons)
	b.Contributions["prop_correlation"] = picks.Contribution{
		Value: value, Triggered: value != 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"team_pace": in.TeamPace, "opp_pace": in.OppPace, "def_rank": in.DefRank,
		}),
	}
}

// totalsCalibration nudges totals toward the season scoring environment.
func (b *BoostSet) totalsCalibration(in Inputs) {
	if in.Cand.PickType != picks.TypeTotal || in.SeasonTotalAvg == 0 || in.Cand.Line == 0 {
		b.Contributions["totals_calibration"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return
	}
	gap := (in.SeasonTotalAvg - in.Cand.Line) / in.SeasonTotalAvg
	value := 0.0
	if in.Cand.Side == "over" {
		value = gap * 2
	} else if in.Cand.Side == "under" {
		value = -gap * 2
	}
	value = contract.Clamp(value, -contract.TotalsCalibrationCap, contract.TotalsCalibrationCap)
	var reasons []string
	if math.Abs(value) >= 0.1 {
		reasons = []string{fmt.Sprintf("Totals calibration: line %.1f vs season %.1f", in.Cand.Line, in.SeasonTotalAvg)}
	}
	b.TotalsCalibration = value
	b.addReasons(reasons)
	b.Contributions["totals_calibration"] = picks.Contribution{
		Value: value, Triggered: value != 0, Reasons: reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"season_avg": in.SeasonTotalAvg, "line": in.Cand.Line,
		}),
	}
}

func (b *BoostSet) addReasons(rs []string) {
	b.Reasons = append(b.Reasons, rs...)
}
