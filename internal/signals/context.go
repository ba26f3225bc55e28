package signals

import (
	"fmt"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// ContextResult is the bounded context-modifier output. Not a weighted
// engine: it applies directly to the final score, clamped to ±0.35.
type ContextResult struct {
	Modifier      float64                       `json:"modifier"`
	Reasons       []string                      `json:"reasons,omitempty"`
	Contributions map[string]picks.Contribution `json:"-"`
}

// ContextModifier folds pace, defense, injuries, officials, venue, travel
// and live-game state into one bounded delta.
func ContextModifier(in Inputs) ContextResult {
	res := ContextResult{Contributions: map[string]picks.Contribution{}}
	delta := 0.0
	var shadowed []string

	// Pace and defensive rank.
	if in.TeamPace > 0 && in.OppPace > 0 {
		paceDelta := (in.TeamPace + in.OppPace - 200) / 100 // ~100 possessions is league pace
		if in.Cand.PickType == picks.TypeTotal || in.Cand.PickType == picks.TypeProp {
			delta += contract.Clamp(paceDelta*0.2, -0.1, 0.1)
			if paceDelta > 0.3 {
				res.Reasons = append(res.Reasons, "Up-tempo pace environment")
			}
		}
	}
	if in.DefRank > 0 {
		if in.DefRank >= 25 {
			delta += 0.1
			res.Reasons = append(res.Reasons, fmt.Sprintf("Soft defense ranked %d", in.DefRank))
		} else if in.DefRank <= 5 {
			delta -= 0.1
			res.Reasons = append(res.Reasons, fmt.Sprintf("Elite defense ranked %d", in.DefRank))
		}
	}

	// Usage vacuum: teammates out raise a prop's ceiling.
	if in.Injuries.Meta.Shadow {
		shadowed = append(shadowed, "injuries")
	} else if statusOf(in.Injuries.Meta) == "SUCCESS" && in.Cand.PickType == picks.TypeProp {
		outCount := 0
		for _, inj := range in.Injuries.Value {
			if inj.Status == "OUT" && !strings.EqualFold(inj.Player, in.Cand.Player) {
				outCount++
			}
		}
		if outCount > 0 {
			delta += contract.Clamp(float64(outCount)*0.05, 0, 0.15)
			res.Reasons = append(res.Reasons, fmt.Sprintf("Usage vacuum: %d rotation players out", outCount))
		}
	}

	// Officials tendency.
	if in.Officials.Meta.Shadow {
		shadowed = append(shadowed, "officials")
	} else if statusOf(in.Officials.Meta) == "SUCCESS" {
		if in.Cand.PickType == picks.TypeTotal && in.Officials.Value.TotalOverPct >= 0.55 {
			delta += 0.1
			res.Reasons = append(res.Reasons, "Over-leaning officiating crew")
		}
	}

	// Venue: altitude and surface.
	if in.Game.Altitude >= 5000 {
		delta += 0.05
		res.Reasons = append(res.Reasons, "High-altitude venue")
	}

	// Weather drag on outdoor totals.
	if in.Weather.Meta.Shadow {
		shadowed = append(shadowed, "weather")
	} else if statusOf(in.Weather.Meta) == "SUCCESS" {
		w := in.Weather.Value
		if in.Cand.PickType == picks.TypeTotal && (w.WindMPH >= 15 || w.PrecipPct >= 50) {
			delta -= 0.15
			res.Reasons = append(res.Reasons, "Weather drag on scoring")
		}
	}

	// Travel fatigue.
	if in.TravelMiles > 2000 && in.RestDays <= 1 {
		delta -= 0.1
		res.Reasons = append(res.Reasons, "Travel fatigue spot")
	}

	// Live in-game lean.
	if in.Cand.GameLive && in.Game.Status == "LIVE" {
		margin := in.Game.HomeScore - in.Game.AwayScore
		if in.Cand.Side == "home" && margin > 0 || in.Cand.Side == "away" && margin < 0 {
			delta += 0.1
			res.Reasons = append(res.Reasons, "Live lead held by selection")
		}
	}

	res.Modifier = contract.Clamp(delta, -contract.ContextModifierCap, contract.ContextModifierCap)
	raw := map[string]interface{}{"raw_delta": delta, "cap": contract.ContextModifierCap}
	if len(shadowed) > 0 {
		raw["shadowed_sources"] = shadowed
	}
	res.Contributions["context_modifier"] = picks.Contribution{
		Value:      res.Modifier,
		Triggered:  res.Modifier != 0,
		Reasons:    res.Reasons,
		Provenance: picks.Internal("SUCCESS", raw),
	}
	return res
}
