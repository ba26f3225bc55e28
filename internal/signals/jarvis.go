package signals

import (
	"fmt"
	"math"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// Sacred number sets for the gematria trigger scan.
var jarvisTriggerSets = map[string][]int{
	"trinity":   {3, 33, 333},
	"ophis":     {13, 26, 39},
	"tetraktys": {10, 55, 100},
	"sacred_7":  {7, 49, 77},
	"vortex":    {9, 18, 27, 36, 45, 54, 63, 72, 81},
	"master":    {11, 22, 44, 88},
}

// JarvisResult is the Jarvis-Ophis hybrid output. All seven fields are
// mandatory on every pick, triggered or not.
type JarvisResult struct {
	Score       float64  `json:"score"`
	Active      bool     `json:"active"`
	Hits        int      `json:"hits"`
	TriggersHit []string `json:"triggers_hit"`
	Reasons     []string `json:"reasons"`
	FailReasons []string `json:"fail_reasons"`
	InputsUsed  []string `json:"inputs_used"`

	MSRF          float64                       `json:"msrf_component"`
	Contributions map[string]picks.Contribution `json:"-"`
}

// JarvisEngine scores gematria triggers against a temporal Z-scan over the
// team's win dates. MSRF is internal to this engine; there is no separate
// post-base MSRF boost.
type JarvisEngine struct{}

// Score runs the Jarvis engine for one candidate.
func (e JarvisEngine) Score(in Inputs) JarvisResult {
	res := JarvisResult{
		TriggersHit:   []string{},
		Reasons:       []string{},
		FailReasons:   []string{},
		InputsUsed:    []string{},
		Contributions: map[string]picks.Contribution{},
	}

	team := in.Cand.Selection
	if team == "" {
		team = in.Cand.HomeTeam
	}
	if team == "" && in.Cand.Player == "" {
		res.FailReasons = append(res.FailReasons, "no selection or player to scan")
		res.Score = 0
		res.Contributions["jarvis_triggers"] = picks.Contribution{
			Provenance: picks.Internal("NO_DATA", nil),
		}
		res.Contributions["msrf"] = picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
		return res
	}
	res.InputsUsed = append(res.InputsUsed, "selection")

	g := gematria(team)
	if in.Cand.Player != "" {
		g = gematria(in.Cand.Player)
		res.InputsUsed = append(res.InputsUsed, "player")
	}
	root := digitRoot(g)

	for name, set := range jarvisTriggerSets {
		for _, n := range set {
			if g == n || root == digitRoot(n) && g%n == 0 {
				res.Hits++
				res.TriggersHit = append(res.TriggersHit, name)
				res.Reasons = append(res.Reasons, fmt.Sprintf("Gematria %d hits %s set", g, name))
				break
			}
		}
	}

	// Temporal Z-scan: how anomalous is today's day-of-year against the
	// distribution of historical win dates.
	z := 0.0
	if len(in.WinDates) >= 5 {
		res.InputsUsed = append(res.InputsUsed, "win_dates")
		z = temporalZ(in.WinDates, in.Cand.StartTime)
		if math.Abs(z) >= 1.5 {
			res.Hits++
			res.Reasons = append(res.Reasons, fmt.Sprintf("Temporal Z-scan anomaly %.1f", z))
		}
	} else {
		res.FailReasons = append(res.FailReasons, "win-date history too short for Z-scan")
	}

	// MSRF: resonance between the trigger density and the temporal scan.
	msrf := contract.Clamp(float64(res.Hits)*0.5+math.Abs(z)*0.4, 0, contract.JarvisMSRFComponentCap)
	res.MSRF = msrf

	if res.Hits == 0 {
		res.Score = contract.JarvisBaseline
		res.FailReasons = append(res.FailReasons, "no sacred-number trigger fired")
	} else {
		res.Active = true
		res.Score = contract.ClampScore(contract.JarvisBaseline + float64(res.Hits)*0.9 + msrf)
	}

	res.Contributions["jarvis_triggers"] = picks.Contribution{
		Value:     float64(res.Hits),
		Triggered: res.Active,
		Reasons:   res.Reasons,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"gematria": g, "hits": res.Hits, "z": z,
		}),
	}
	res.Contributions["msrf"] = picks.Contribution{
		Value:     msrf,
		Triggered: msrf > 0,
		Provenance: picks.Internal("SUCCESS", map[string]interface{}{
			"msrf": msrf, "cap": contract.JarvisMSRFComponentCap,
		}),
	}
	return res
}

// temporalZ returns the z-score of the game's day-of-year against the win
// date distribution. Zone-aware throughout.
func temporalZ(winDates []time.Time, gameTime time.Time) float64 {
	if gameTime.IsZero() {
		return 0
	}
	var doys []float64
	for _, d := range winDates {
		doys = append(doys, float64(d.YearDay()))
	}
	m := mean(doys)
	var ss float64
	for _, d := range doys {
		ss += (d - m) * (d - m)
	}
	std := math.Sqrt(ss / float64(len(doys)))
	if std == 0 {
		return 0
	}
	return (float64(gameTime.YearDay()) - m) / std
}
