package providers

import (
	"context"
	"math"
	"time"
)

// AstroClient wraps the astronomical API. When the wire is unavailable the
// client falls back to internal ephemeris math and reports FALLBACK, so the
// esoteric engine keeps its lunar inputs on a dead network.
type AstroClient struct {
	base
}

// NewAstroClient builds the astro client.
func NewAstroClient(deps Deps, baseURL string) *AstroClient {
	return &AstroClient{base: newBase(deps, "astro", baseURL, "")}
}

// Reference new moon, zone-aware. Phase arithmetic against a naive epoch
// drifts by the UTC offset; every span here is computed in UTC instants.
var lunarEpoch = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

const synodicMonthDays = 29.530588853

// GetMoonPhase returns lunar state for a date.
func (c *AstroClient) GetMoonPhase(ctx context.Context, date time.Time) (MoonInfo, Meta) {
	var wire struct {
		Phase        float64 `json:"phase"`
		Illumination float64 `json:"illumination"`
		PhaseName    string  `json:"phase_name"`
		VoidOfCourse bool    `json:"void_of_course"`
	}
	meta := c.fetchJSON(ctx, "moon", "/v1/moon", map[string]string{
		"date": date.UTC().Format("2006-01-02"),
	}, &wire)
	if meta.OK() {
		return MoonInfo{
			Phase:        wire.Phase,
			Illumination: wire.Illumination,
			PhaseName:    wire.PhaseName,
			VoidOfCourse: wire.VoidOfCourse,
		}, meta
	}
	if meta.Status == StatusSkippedQuota {
		return MoonInfo{}, meta
	}

	// Wire down: internal ephemeris fallback.
	info := computeMoonPhase(date)
	meta.Status = StatusFallback
	meta.Detail = "internal ephemeris"
	return info, meta
}

// computeMoonPhase derives phase and illumination from the synodic cycle.
func computeMoonPhase(date time.Time) MoonInfo {
	days := date.UTC().Sub(lunarEpoch).Hours() / 24.0
	cycles := days / synodicMonthDays
	phase := cycles - math.Floor(cycles)
	if phase < 0 {
		phase += 1
	}
	illum := (1 - math.Cos(2*math.Pi*phase)) / 2
	return MoonInfo{
		Phase:        phase,
		Illumination: illum,
		PhaseName:    phaseName(phase),
		VoidOfCourse: false, // void windows need real ephemeris; fallback never claims one
	}
}

func phaseName(phase float64) string {
	switch {
	case phase < 0.0625 || phase >= 0.9375:
		return "New Moon"
	case phase < 0.1875:
		return "Waxing Crescent"
	case phase < 0.3125:
		return "First Quarter"
	case phase < 0.4375:
		return "Waxing Gibbous"
	case phase < 0.5625:
		return "Full Moon"
	case phase < 0.6875:
		return "Waning Gibbous"
	case phase < 0.8125:
		return "Last Quarter"
	default:
		return "Waning Crescent"
	}
}

// Mercury retrograde windows. Updated with the ephemeris refresh; dates are
// station-to-station, inclusive.
var mercuryRetrogradeWindows = [][2]time.Time{
	{time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 29, 0, 0, 0, 0, time.UTC)},
	{time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)},
	{time.Date(2026, 6, 29, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 23, 0, 0, 0, 0, time.UTC)},
	{time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC), time.Date(2026, 11, 13, 0, 0, 0, 0, time.UTC)},
}

// MercuryRetrograde reports whether date falls in a retrograde window.
// Pure table lookup; no wire call.
func (c *AstroClient) MercuryRetrograde(date time.Time) bool {
	d := date.UTC()
	for _, w := range mercuryRetrogradeWindows {
		if !d.Before(w[0]) && !d.After(w[1]) {
			return true
		}
	}
	return false
}
