// Package signals contains the pure signal computers behind the four base
// engines, the context modifier and the post-base boosts. Computers hold no
// cross-request state: everything they read arrives in Inputs, assembled by
// the orchestrator from provider results and the pre-fetch cache.
package signals

import (
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

// Sourced pairs a provider value with the Meta describing how it was
// obtained, so every computer can emit truthful provenance.
type Sourced[T any] struct {
	Value T
	Meta  providers.Meta
}

// Inputs is the full data bundle for scoring one candidate.
type Inputs struct {
	Cand picks.Candidate
	Game providers.Game

	// Research inputs. Splits come only from playbook; the board only from
	// the odds API. The two never substitute for one another.
	Splits   Sourced[*providers.SplitRecord]
	Board    Sourced[providers.OddsBoard]
	Injuries Sourced[[]providers.InjuryReport]
	ESPNLine Sourced[float64] // cross-validation line from the scoreboard feed

	// Context inputs.
	Weather     Sourced[providers.WeatherSnapshot]
	Officials   Sourced[providers.OfficialsReport]
	TeamPace    float64
	OppPace     float64
	DefRank     int // opponent defensive rank, 1 = best
	TravelMiles float64
	RestDays    int

	// AI inputs.
	PlayerLog         Sourced[providers.PlayerLog]
	LSTMAvailable     bool
	EnsembleAvailable bool

	// Esoteric inputs.
	Kp             Sourced[providers.KpReading]
	Moon           Sourced[providers.MoonInfo]
	Flares         Sourced[[]providers.SolarFlare]
	Trend          Sourced[providers.TrendPoint]
	Quote          Sourced[providers.QuoteSentiment]
	PlayerBirthday time.Time // zero when unknown
	LineHistory    []float64 // chronological line snapshots
	MercuryRetro   bool
	Rivalry        bool
	StreakWins     int

	// Jarvis inputs.
	WinDates []time.Time

	// Boost inputs.
	SERP            Sourced[providers.SERPResult]
	News            Sourced[[]providers.NewsItem]
	ExpertConsensus Sourced[float64] // percent of tracked experts on this side
	ExpertShadow    bool             // shadow mode: compute and log, zero impact
	SeasonTotalAvg  float64          // season scoring average for totals calibration
	SimWinProb      float64          // Jason Monte-Carlo win probability, 0 when not run
	SimRuns         int
}

// statusOf maps a provider Meta onto the provenance status vocabulary.
func statusOf(m providers.Meta) string {
	switch m.Status {
	case providers.StatusSuccess:
		return "SUCCESS"
	case providers.StatusFallback:
		return "FALLBACK"
	case providers.StatusDisabled:
		return "DISABLED"
	case providers.StatusSkippedQuota:
		return "SKIPPED_QUOTA"
	case providers.StatusNotRelevant:
		return "NOT_RELEVANT"
	case providers.StatusTimeout, providers.StatusError:
		return "ERROR"
	default:
		return "NO_DATA"
	}
}

// external builds provenance from a provider meta.
func external(m providers.Meta, raw map[string]interface{}) picks.Provenance {
	return picks.External(m.Provider, statusOf(m), m.CallProof(), raw)
}

// shadowZero strips the scoring impact of a contribution whose source client
// ran in shadow mode. The computed value stays in the raw inputs so the
// signal can still be validated against graded picks.
func shadowZero(c picks.Contribution, m providers.Meta) picks.Contribution {
	if !m.Shadow {
		return c
	}
	if c.Provenance.RawInputs == nil {
		c.Provenance.RawInputs = map[string]interface{}{}
	}
	c.Provenance.RawInputs["shadow"] = true
	c.Provenance.RawInputs["computed"] = c.Value
	if c.Triggered {
		c.Reasons = append(c.Reasons, "shadow mode, no impact")
	}
	c.Value = 0
	c.Triggered = false
	return c
}
