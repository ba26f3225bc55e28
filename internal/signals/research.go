package signals

import (
	"fmt"
	"math"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// SharpStrength grades the sharp-money signal.
type SharpStrength string

const (
	SharpNone     SharpStrength = "NONE"
	SharpModerate SharpStrength = "MODERATE"
	SharpStrong   SharpStrength = "STRONG"
)

// ResearchResult extends the engine result with the fields the separation
// invariants are asserted against.
type ResearchResult struct {
	picks.EngineResult
	SharpStrength SharpStrength
	SharpBoost    float64
	LineBoost     float64
}

// ResearchEngine combines the market-derived signals. The sharp-money
// signal reads only the playbook splits record; the line-variance signal
// reads only the odds board. Neither may touch the other's fields.
type ResearchEngine struct{}

// Score runs the research engine for one candidate.
func (e ResearchEngine) Score(in Inputs) ResearchResult {
	res := ResearchResult{
		EngineResult:  picks.EngineResult{Contributions: map[string]picks.Contribution{}},
		SharpStrength: SharpNone,
	}

	sharp := e.sharpMoney(in)
	sharp.contrib = shadowZero(sharp.contrib, in.Splits.Meta)
	res.Contributions["sharp"] = sharp.contrib
	res.SharpStrength = sharp.strength
	res.SharpBoost = sharp.contrib.Value

	line := shadowZero(e.lineVariance(in), in.Board.Meta)
	res.Contributions["line_variance"] = line
	res.LineBoost = line.Value

	fade := shadowZero(e.publicFade(in), in.Splits.Meta)
	res.Contributions["public_fade"] = fade

	situational := e.situational(in)
	res.Contributions["situational"] = situational

	espn := shadowZero(e.espnCross(in), in.ESPNLine.Meta)
	res.Contributions["espn_cross"] = espn

	rlm := shadowZero(e.reverseLineMove(in), in.Splits.Meta)
	res.Contributions["rlm"] = rlm

	// Weighted sum of the component boosts on top of the neutral baseline.
	raw := contract.NeutralBaseline +
		1.6*sharp.contrib.Value +
		1.0*line.Value +
		0.8*fade.Value +
		0.5*situational.Value +
		0.5*espn.Value +
		1.2*rlm.Value
	res.Score = contract.ClampScore(raw)

	for _, c := range []picks.Contribution{sharp.contrib, line, fade, situational, espn, rlm} {
		if c.Triggered {
			res.Reasons = append(res.Reasons, c.Reasons...)
		}
	}
	return res
}

type sharpOutcome struct {
	contrib  picks.Contribution
	strength SharpStrength
}

// sharpMoney reads ONLY the playbook-sourced splits record. When that
// record is anything but SUCCESS the strength is NONE and no reason string
// beginning with "Sharp" is emitted, no matter what the odds board says.
func (e ResearchEngine) sharpMoney(in Inputs) sharpOutcome {
	meta := in.Splits.Meta
	status := statusOf(meta)
	out := sharpOutcome{strength: SharpNone}

	if status != "SUCCESS" || in.Splits.Value == nil {
		if status == "SUCCESS" {
			status = "NO_DATA"
		}
		out.contrib = picks.Contribution{
			Provenance: picks.External("playbook", status, meta.CallProof(), map[string]interface{}{
				"ticket_pct": nil, "money_pct": nil,
			}),
		}
		return out
	}

	rec := in.Splits.Value
	div := rec.Divergence()
	raw := map[string]interface{}{
		"ticket_pct": rec.TicketPct,
		"money_pct":  rec.MoneyPct,
		"divergence": div,
	}
	if div < contract.SharpDivergenceMin {
		out.contrib = picks.Contribution{
			Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw),
		}
		return out
	}

	value := 0.25
	out.strength = SharpModerate
	if div >= contract.SharpDivergenceMin*1.5 {
		value = 0.5
		out.strength = SharpStrong
	}
	out.contrib = picks.Contribution{
		Value:     value,
		Triggered: true,
		Reasons: []string{fmt.Sprintf("Sharp money divergence: %.0f%% tickets vs %.0f%% handle",
			rec.TicketPct, rec.MoneyPct)},
		Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw),
	}
	return out
}

// lineVariance reads ONLY the odds-sourced board. It never writes a sharp
// field; cross-book disagreement is its own signal.
func (e ResearchEngine) lineVariance(in Inputs) picks.Contribution {
	meta := in.Board.Meta
	status := statusOf(meta)
	if status != "SUCCESS" {
		return picks.Contribution{
			Provenance: picks.External("odds", status, meta.CallProof(), map[string]interface{}{
				"line_variance": nil,
			}),
		}
	}

	market := strings.ToLower(in.Cand.Market())
	variance, ok := in.Board.Value.LineVariance(market)
	raw := map[string]interface{}{"line_variance": variance, "market": market}
	if !ok {
		raw["line_variance"] = nil
		return picks.Contribution{
			Provenance: picks.External("odds", "NO_DATA", meta.CallProof(), raw),
		}
	}
	if variance < contract.LineVarianceMin {
		return picks.Contribution{
			Provenance: picks.External("odds", "SUCCESS", meta.CallProof(), raw),
		}
	}
	value := contract.Clamp(variance/5.0, 0, 0.5)
	return picks.Contribution{
		Value:      value,
		Triggered:  true,
		Reasons:    []string{fmt.Sprintf("Line variance %.1f across books on %s", variance, market)},
		Provenance: picks.External("odds", "SUCCESS", meta.CallProof(), raw),
	}
}

// publicFade fires when tickets pile on one side without matching money.
func (e ResearchEngine) publicFade(in Inputs) picks.Contribution {
	meta := in.Splits.Meta
	status := statusOf(meta)
	if status != "SUCCESS" || in.Splits.Value == nil {
		return picks.Contribution{Provenance: picks.External("playbook", status, meta.CallProof(), nil)}
	}
	rec := in.Splits.Value
	raw := map[string]interface{}{"ticket_pct": rec.TicketPct, "money_pct": rec.MoneyPct}
	if rec.TicketPct >= contract.PublicFadeTicketMin && rec.MoneyPct < rec.TicketPct-5 {
		return picks.Contribution{
			Value:      0.3,
			Triggered:  true,
			Reasons:    []string{fmt.Sprintf("Public fade: %.0f%% of tickets without the money", rec.TicketPct)},
			Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw),
		}
	}
	return picks.Contribution{Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw)}
}

// situational scores schedule spots: rest edges and travel.
func (e ResearchEngine) situational(in Inputs) picks.Contribution {
	value := 0.0
	var reasons []string
	if in.RestDays >= 3 {
		value += 0.2
		reasons = append(reasons, "Extended rest spot")
	}
	if in.TravelMiles > 2000 {
		value -= 0.2
		reasons = append(reasons, "Long travel spot against")
	}
	return picks.Contribution{
		Value:     value,
		Triggered: value != 0,
		Reasons:   reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"rest_days": in.RestDays, "travel_miles": in.TravelMiles,
		}),
	}
}

// espnCross validates the book line against the scoreboard feed's line.
func (e ResearchEngine) espnCross(in Inputs) picks.Contribution {
	meta := in.ESPNLine.Meta
	status := statusOf(meta)
	if status != "SUCCESS" || in.Cand.Line == 0 {
		if status == "SUCCESS" {
			status = "NO_DATA"
		}
		return picks.Contribution{Provenance: picks.External(meta.Provider, status, meta.CallProof(), nil)}
	}
	diff := math.Abs(in.ESPNLine.Value - in.Cand.Line)
	raw := map[string]interface{}{"espn_line": in.ESPNLine.Value, "book_line": in.Cand.Line}
	if diff >= 1.0 {
		return picks.Contribution{
			Value:      0.25,
			Triggered:  true,
			Reasons:    []string{fmt.Sprintf("Cross-feed line gap %.1f", diff)},
			Provenance: picks.External(meta.Provider, "SUCCESS", meta.CallProof(), raw),
		}
	}
	return picks.Contribution{Provenance: picks.External(meta.Provider, "SUCCESS", meta.CallProof(), raw)}
}

// reverseLineMove fires when the line walks away from a heavy public side.
func (e ResearchEngine) reverseLineMove(in Inputs) picks.Contribution {
	meta := in.Splits.Meta
	if statusOf(meta) != "SUCCESS" || in.Splits.Value == nil || len(in.LineHistory) < 2 {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	rec := in.Splits.Value
	move := in.LineHistory[len(in.LineHistory)-1] - in.LineHistory[0]
	raw := map[string]interface{}{"ticket_pct": rec.TicketPct, "line_move": move}
	// Public on this side but the line moved against them.
	if rec.TicketPct >= contract.RLMPublicPctMin && move <= -contract.RLMLineMoveMin {
		return picks.Contribution{
			Value:      0.4,
			Triggered:  true,
			Reasons:    []string{fmt.Sprintf("Reverse line movement: %.0f%% public, line moved %.1f", rec.TicketPct, move)},
			Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw),
		}
	}
	return picks.Contribution{Provenance: picks.External("playbook", "SUCCESS", meta.CallProof(), raw)}
}
