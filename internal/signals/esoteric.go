package signals

import (
	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// EsotericEngine aggregates the GLITCH physics signals and the phase-8
// signal family into one 0-10 score.
type EsotericEngine struct{}

// Score runs the esoteric engine for one candidate.
func (e EsotericEngine) Score(in Inputs) picks.EngineResult {
	res := picks.EngineResult{Contributions: map[string]picks.Contribution{}}

	glitch := glitchSignals(in)
	for name, c := range glitch {
		res.Contributions[name] = c
		if c.Triggered {
			res.Reasons = append(res.Reasons, c.Reasons...)
		}
	}
	raw := contract.NeutralBaseline + glitchAggregate(glitch)

	for name, c := range phase8Signals(in) {
		res.Contributions[name] = c
		raw += c.Value
		if c.Triggered {
			res.Reasons = append(res.Reasons, c.Reasons...)
		}
	}

	res.Score = contract.ClampScore(raw)
	return res
}
