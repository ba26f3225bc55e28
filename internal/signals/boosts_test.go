package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

func engineResult(score float64) picks.EngineResult {
	return picks.EngineResult{Score: score}
}

func TestConfluenceLadder(t *testing.T) {
	var b BoostSet
	b.Contributions = map[string]picks.Contribution{}
	b.confluence(7.5, 7.2, 6.0, 7.1)
	assert.Equal(t, 0.5, b.Confluence)

	b = BoostSet{Contributions: map[string]picks.Contribution{}}
	b.confluence(7.5, 7.2, 3.0, 4.0)
	assert.Equal(t, 0.25, b.Confluence)

	b = BoostSet{Contributions: map[string]picks.Contribution{}}
	b.confluence(5.0, 5.0, 5.0, 5.0)
	assert.Zero(t, b.Confluence)
}

func TestConfluenceHarmonicConvergence(t *testing.T) {
	b := BoostSet{Contributions: map[string]picks.Contribution{}}
	b.confluence(7.5, 8.5, 8.2, 7.1)
	assert.InDelta(t, 0.5+contract.HarmonicConvergenceBonus, b.Confluence, 1e-9)
	assert.LessOrEqual(t, b.Confluence, contract.ConfluenceBoostCap)
}

func TestJasonSimBoost(t *testing.T) {
	b := ComputeBoosts(Inputs{SimWinProb: 0.8, SimRuns: 10000},
		engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.InDelta(t, 0.6, b.JasonSim, 1e-9)

	// A losing simulation never subtracts.
	b = ComputeBoosts(Inputs{SimWinProb: 0.4, SimRuns: 10000},
		engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.JasonSim)

	// No simulation ran.
	b = ComputeBoosts(Inputs{},
		engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.JasonSim)
	assert.Equal(t, "NO_DATA", b.Contributions["jason_sim"].Provenance.Status)
}

func TestSERPQuotaExhaustionContributesZero(t *testing.T) {
	in := Inputs{
		Cand: picks.Candidate{Selection: "Knicks"},
		SERP: Sourced[providers.SERPResult]{
			Meta: providers.Meta{Provider: "serp", Status: providers.StatusSkippedQuota},
		},
	}
	b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.SERPTotal)
	serp := b.Contributions["serp"]
	assert.Equal(t, "SKIPPED_QUOTA", serp.Provenance.Status)
	assert.Empty(t, serp.Reasons)
}

func TestSERPCompositeWithinTotalCap(t *testing.T) {
	in := Inputs{
		Cand: picks.Candidate{Selection: "Knicks"},
		SERP: Sourced[providers.SERPResult]{
			Value: providers.SERPResult{
				TotalResults: 50_000_000,
				Headlines: []string{
					"Knicks on a hot streak at home",
					"Knicks dominant in the paint",
					"Knicks surge continues",
					"League roundup",
				},
			},
			Meta: providers.Meta{Provider: "serp", Status: providers.StatusSuccess},
		},
	}
	b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Positive(t, b.SERPTotal)
	assert.LessOrEqual(t, b.SERPTotal, contract.SERPTotalBoostCap)

	raw := b.Contributions["serp"].Provenance.RawInputs
	require.NotNil(t, raw)
	sub := raw["sub_boosts"].(map[string]float64)
	for family, v := range sub {
		assert.LessOrEqual(t, v, contract.SERPSubBoostCap, family)
	}
}

func TestEnsembleStep(t *testing.T) {
	avail := Inputs{EnsembleAvailable: true}
	b := ComputeBoosts(avail, engineResult(7.5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, contract.EnsembleAdjStep, b.EnsembleAdj)

	b = ComputeBoosts(avail, engineResult(2.0), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, -contract.EnsembleAdjStep, b.EnsembleAdj)

	b = ComputeBoosts(avail, engineResult(5.0), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.EnsembleAdj)

	// No trained artifact, no step.
	b = ComputeBoosts(Inputs{}, engineResult(7.5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.EnsembleAdj)
	assert.Equal(t, "NO_DATA", b.Contributions["ensemble_adj"].Provenance.Status)
}

func TestHookPenaltyNeverPositive(t *testing.T) {
	cases := []struct {
		line float64
		want float64
	}{
		{-3.5, -0.25},
		{3.5, -0.25},
		{-7.5, -0.25},
		{-4.5, 0},
		{-3.0, 0},
	}
	for _, tc := range cases {
		in := Inputs{Cand: picks.Candidate{PickType: picks.TypeSpread, Line: tc.line}}
		b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
		assert.Equal(t, tc.want, b.HookPenalty, "line %v", tc.line)
		assert.LessOrEqual(t, b.HookPenalty, 0.0)
	}

	in := Inputs{Cand: picks.Candidate{PickType: picks.TypeTotal, Line: 213.5}}
	b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.HookPenalty)
}

func TestExpertConsensusBoost(t *testing.T) {
	in := Inputs{ExpertConsensus: Sourced[float64]{
		Value: 80,
		Meta:  providers.Meta{Provider: "serp", Status: providers.StatusSuccess},
	}}
	b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.InDelta(t, 0.3, b.ExpertConsensus, 1e-9)

	// Below the 70% floor nothing applies.
	in.ExpertConsensus.Value = 60
	b = ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.ExpertConsensus)
}

func TestExpertShadowModeComputesButContributesZero(t *testing.T) {
	in := Inputs{
		ExpertShadow: true,
		ExpertConsensus: Sourced[float64]{
			Value: 80,
			Meta:  providers.Meta{Provider: "serp", Status: providers.StatusSuccess},
		},
	}
	b := ComputeBoosts(in, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.ExpertConsensus)

	c := b.Contributions["expert_consensus"]
	require.NotNil(t, c.Provenance.RawInputs)
	assert.InDelta(t, 0.3, c.Provenance.RawInputs["computed"].(float64), 1e-9)
	assert.Equal(t, true, c.Provenance.RawInputs["shadow"])
	require.NotEmpty(t, c.Reasons)
	assert.Contains(t, c.Reasons[0], "shadow")
}

func TestPropCorrelation(t *testing.T) {
	over := Inputs{
		Cand:     picks.Candidate{PickType: picks.TypeProp, Side: "over"},
		TeamPace: 104, OppPace: 103,
	}
	b := ComputeBoosts(over, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, 0.2, b.PropCorrelation)

	under := Inputs{
		Cand:     picks.Candidate{PickType: picks.TypeProp, Side: "under"},
		TeamPace: 98, OppPace: 97,
		DefRank:  3,
	}
	b = ComputeBoosts(under, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, 0.2, b.PropCorrelation)

	spread := Inputs{Cand: picks.Candidate{PickType: picks.TypeSpread}}
	b = ComputeBoosts(spread, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.PropCorrelation)
	assert.Equal(t, "NO_DATA", b.Contributions["prop_correlation"].Provenance.Status)
}

func TestTotalsCalibration(t *testing.T) {
	over := Inputs{
		Cand:           picks.Candidate{PickType: picks.TypeTotal, Side: "over", Line: 200},
		SeasonTotalAvg: 230,
	}
	b := ComputeBoosts(over, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.InDelta(t, 0.2609, b.TotalsCalibration, 1e-3)

	under := over
	under.Cand.Side = "under"
	b = ComputeBoosts(under, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.InDelta(t, -0.2609, b.TotalsCalibration, 1e-3)
	assert.GreaterOrEqual(t, b.TotalsCalibration, -contract.TotalsCalibrationCap)
}

func TestLiveAdjustmentOnlyWhenLive(t *testing.T) {
	pre := Inputs{Cand: picks.Candidate{PickType: picks.TypeSpread, Side: "home"}}
	b := ComputeBoosts(pre, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Zero(t, b.LiveAdj)
	assert.Equal(t, "NO_DATA", b.Contributions["live_adj"].Provenance.Status)

	live := Inputs{
		Cand: picks.Candidate{PickType: picks.TypeSpread, Side: "home", GameLive: true},
		Game: providers.Game{Status: "LIVE", HomeScore: 60, AwayScore: 50, Period: 3},
	}
	b = ComputeBoosts(live, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, contract.LiveAdjustmentCap, b.LiveAdj)

	trailing := live
	trailing.Cand.Side = "away"
	b = ComputeBoosts(trailing, engineResult(5), engineResult(5), engineResult(5), JarvisResult{})
	assert.Equal(t, -contract.LiveAdjustmentCap, b.LiveAdj)
}
