package picks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

func scoredFixture() ScoredPick {
	return ScoredPick{
		PickID: "abc-123",
		Candidate: Candidate{
			PickType:  TypeSpread,
			Sport:     "NBA",
			HomeTeam:  "Knicks",
			AwayTeam:  "Celtics",
			Selection: "Knicks",
			Side:      "home",
			Line:      -3.5,
			OddsUS:    -110,
			StartTime: time.Date(2026, 3, 15, 23, 30, 0, 0, timeauth.ETLocation()),
			EventID:   "evt1",
		},
		AIScore:         7.1,
		ResearchScore:   6.8,
		EsotericScore:   5.2,
		JarvisScore:     6.9,
		Base4:           6.6,
		ContextModifier: 0.2,
		ConfluenceBoost: 0.25,
		SERPBoost:       0.3,
		HookPenalty:     -0.25,
		FinalScore:      7.6,
		Tier:            "SILVER",
		ResearchReasons: []string{"Sharp money divergence 18 points"},
		Signals: map[string]Contribution{
			"research_sharp": {
				Value:      0.25,
				Triggered:  true,
				Provenance: External("playbook", "SUCCESS", "http_2xx_delta", map[string]interface{}{"ticket_pct": 30.0}),
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestNormalizeProjection(t *testing.T) {
	out := Normalize(scoredFixture())
	assert.Equal(t, "abc-123", out.PickID)
	assert.Equal(t, "Celtics @ Knicks", out.Matchup)
	assert.Equal(t, "home", out.SelectionHA)
	assert.Equal(t, "spread", out.Market)
	assert.Equal(t, "2026-03-15 23:30:00 ET", out.StartTimeET)
	assert.Equal(t, 7.6, out.FinalScore)
	assert.Equal(t, "SILVER", out.Tier)
	assert.Equal(t, -0.25, out.HookPenalty)

	prov, ok := out.PerSignalProvenance["research_sharp"]
	require.True(t, ok)
	assert.Equal(t, "playbook", prov.SourceAPI)
	assert.Equal(t, "EXTERNAL", prov.SourceType)
	assert.Equal(t, "http_2xx_delta", prov.CallProof)
	assert.Equal(t, 0.25, prov.Value)
}

func TestNormalizeReasonArraysNeverNull(t *testing.T) {
	p := scoredFixture()
	p.AIReasons = nil
	p.EsotericReasons = nil
	p.JarvisReasons = nil
	out := Normalize(p)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"ai_reasons", "esoteric_reasons", "jarvis_reasons", "research_reasons"} {
		v, ok := doc[key]
		require.True(t, ok, key)
		_, isArray := v.([]interface{})
		assert.True(t, isArray, "%s must be an array, got %T", key, v)
	}
}

func TestNormalizeSurfacesZeroBoosts(t *testing.T) {
	p := scoredFixture()
	raw, err := json.Marshal(Normalize(p))
	require.NoError(t, err)
	doc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{
		"msrf_boost", "jason_sim_boost", "ensemble_adjustment", "live_adjustment",
		"expert_consensus_boost", "prop_correlation_adjustment", "totals_calibration_adj",
	} {
		v, ok := doc[key]
		require.True(t, ok, key)
		assert.Equal(t, 0.0, v, key)
	}
}

func TestToRecord(t *testing.T) {
	p := scoredFixture()
	rec := ToRecord(p, "2026-03-15")
	assert.Equal(t, 2, rec.SchemaVersion)
	assert.Equal(t, "abc-123", rec.PickID)
	assert.Equal(t, "2026-03-15", rec.DateET)
	assert.Equal(t, "evt1", rec.EventID)
	assert.Equal(t, "spread", rec.Market)
	assert.Equal(t, 7.6, rec.FinalScore)

	assert.Equal(t, 0.2, rec.Adjustments["context_modifier"])
	assert.Equal(t, 0.25, rec.Adjustments["confluence_boost"])
	assert.Equal(t, -0.25, rec.Adjustments["hook_penalty"])
	assert.Zero(t, rec.Adjustments["msrf_boost"])

	assert.Equal(t, 0.25, rec.SignalContribs["research_sharp"])
}

func TestMatchupAndMarket(t *testing.T) {
	c := Candidate{PickType: TypeTotal, HomeTeam: "Knicks", AwayTeam: "Celtics"}
	assert.Equal(t, "Celtics @ Knicks", c.Matchup())
	assert.Equal(t, "total", c.Market())

	prop := Candidate{PickType: TypeProp, StatType: "points"}
	assert.Equal(t, "points", prop.Market())
}
