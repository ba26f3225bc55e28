package signals

import (
	"fmt"
	"math"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// AIEngine scores candidates with the trained models when their artifacts
// exist and a deterministic heuristic otherwise. Every fallback records its
// reason; the neutral baseline with no signal at all is 5.0.
type AIEngine struct {
	Predict func(in Inputs) (float64, bool) // model hook; nil means artifacts only gate heuristics
}

// Score runs the AI engine for one candidate.
func (e AIEngine) Score(in Inputs) picks.EngineResult {
	if in.Cand.PickType == picks.TypeProp {
		return e.scoreProp(in)
	}
	return e.scoreGame(in)
}

func (e AIEngine) scoreProp(in Inputs) picks.EngineResult {
	res := picks.EngineResult{Contributions: map[string]picks.Contribution{}}

	if in.LSTMAvailable && e.Predict != nil {
		if score, ok := e.Predict(in); ok {
			score = contract.ClampScore(score)
			res.Score = score
			res.Reasons = append(res.Reasons, fmt.Sprintf("LSTM model projection for %s %s", in.Cand.Player, in.Cand.StatType))
			res.Contributions["lstm"] = picks.Contribution{
				Value:     score,
				Triggered: true,
				Reasons:   res.Reasons,
				Provenance: picks.Internal("SUCCESS", map[string]interface{}{
					"model": "lstm", "stat_type": in.Cand.StatType,
				}),
			}
			return res
		}
	}

	// Heuristic fallback: neutral baseline plus rule adjustments off the
	// recent game log.
	score := contract.NeutralBaseline
	reasons := []string{}
	fallbackReason := "no LSTM weights for sport+stat"
	if in.LSTMAvailable {
		fallbackReason = "LSTM predict unavailable"
	}

	log := in.PlayerLog.Value
	status := statusOf(in.PlayerLog.Meta)
	if len(log.Values) >= 3 {
		avg := mean(log.Values)
		recent := mean(log.Values[max(0, len(log.Values)-3):])
		if in.Cand.Line > 0 {
			edge := (avg - in.Cand.Line) / math.Max(in.Cand.Line, 1)
			score += contract.Clamp(edge*10, -2.0, 2.0)
			if edge > 0.05 {
				reasons = append(reasons, fmt.Sprintf("Season average %.1f clears line %.1f", avg, in.Cand.Line))
			}
		}
		if recent > avg*1.1 {
			score += 0.5
			reasons = append(reasons, "Recent form above season average")
		} else if recent < avg*0.9 {
			score -= 0.5
		}
	} else {
		status = "NO_DATA"
	}

	score = contract.ClampScore(score)
	raw := map[string]interface{}{
		"games": len(log.Values), "fallback_reason": fallbackReason,
	}
	if in.PlayerLog.Meta.Shadow {
		// Shadowed stats client: the log-derived adjustments are computed and
		// logged but the score holds at baseline.
		raw["shadow"] = true
		raw["computed"] = score
		score = contract.NeutralBaseline
		reasons = append(reasons, "shadow mode, no impact")
	}
	res.Score = score
	res.Reasons = append(reasons, "Heuristic fallback: "+fallbackReason)
	res.Contributions["ai_heuristic"] = picks.Contribution{
		Value:      score,
		Triggered:  score != contract.NeutralBaseline,
		Reasons:    res.Reasons,
		Provenance: picks.External(in.PlayerLog.Meta.Provider, status, in.PlayerLog.Meta.CallProof(), raw),
	}
	return res
}

func (e AIEngine) scoreGame(in Inputs) picks.EngineResult {
	res := picks.EngineResult{Contributions: map[string]picks.Contribution{}}

	if in.EnsembleAvailable && e.Predict != nil {
		if score, ok := e.Predict(in); ok {
			score = contract.ClampScore(score)
			res.Score = score
			res.Reasons = append(res.Reasons, "Ensemble model projection")
			res.Contributions["ensemble_model"] = picks.Contribution{
				Value:      score,
				Triggered:  true,
				Reasons:    res.Reasons,
				Provenance: picks.Internal("SUCCESS", map[string]interface{}{"model": "ensemble"}),
			}
			return res
		}
	}

	score := contract.NeutralBaseline
	reasons := []string{}
	// Rule adjustments: pace differential and rest advantage.
	if in.TeamPace > 0 && in.OppPace > 0 {
		diff := in.TeamPace - in.OppPace
		score += contract.Clamp(diff/10.0, -1.0, 1.0)
		if diff > 3 {
			reasons = append(reasons, fmt.Sprintf("Pace edge %.1f possessions", diff))
		}
	}
	if in.RestDays >= 2 {
		score += 0.3
		reasons = append(reasons, "Rest advantage")
	}
	score = contract.ClampScore(score)

	res.Score = score
	res.Reasons = append(reasons, "Heuristic fallback: no ensemble artifact")
	res.Contributions["ai_heuristic"] = picks.Contribution{
		Value:     score,
		Triggered: score != contract.NeutralBaseline,
		Reasons:   res.Reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"fallback_reason": "no ensemble artifact",
		}),
	}
	return res
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
