package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

func dayET(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := timeauth.ParseETDate(date)
	require.NoError(t, err)
	return d
}

func pick(event, market, side string, final float64, start time.Time) picks.ScoredPick {
	return picks.ScoredPick{
		PickID: event + "-" + market + "-" + side,
		Candidate: picks.Candidate{
			PickType:  market,
			EventID:   event,
			Side:      side,
			StartTime: start,
		},
		FinalScore: final,
	}
}

func TestSelectDropsBelowFloor(t *testing.T) {
	day := dayET(t, "2026-03-15")
	start := day.Add(19 * time.Hour)
	out := Select([]picks.ScoredPick{
		pick("e1", picks.TypeSpread, "home", 6.4, start),
		pick("e2", picks.TypeSpread, "home", 6.5, start),
	}, day)
	require.Len(t, out, 1)
	assert.Equal(t, "e2-SPREAD-home", out[0].PickID)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.FinalScore, contract.MinDisplayScore)
	}
}

func TestSelectFiltersToETDay(t *testing.T) {
	day := dayET(t, "2026-03-15")
	late := day.Add(23*time.Hour + 30*time.Minute) // 23:30 ET, in window
	next := day.Add(24*time.Hour + 15*time.Minute) // 00:15 ET next day, out
	out := Select([]picks.ScoredPick{
		pick("e1", picks.TypeSpread, "home", 8.0, late),
		pick("e2", picks.TypeSpread, "home", 8.0, next),
	}, day)
	require.Len(t, out, 1)
	assert.Equal(t, "e1", out[0].Candidate.EventID)
}

func TestSelectDedupesOpposingSides(t *testing.T) {
	day := dayET(t, "2026-03-15")
	start := day.Add(19 * time.Hour)
	a := pick("e1", picks.TypeTotal, "over", 7.1, start)
	b := pick("e1", picks.TypeTotal, "under", 7.9, start)
	out := Select([]picks.ScoredPick{a, b}, day)
	require.Len(t, out, 1)
	assert.Equal(t, "under", out[0].Candidate.Side)
}

func TestSelectOrdering(t *testing.T) {
	day := dayET(t, "2026-03-15")
	start := day.Add(19 * time.Hour)
	lo := pick("e1", picks.TypeSpread, "home", 7.0, start)
	hi := pick("e2", picks.TypeSpread, "home", 9.0, start)
	mid := pick("e3", picks.TypeSpread, "home", 8.0, start)
	out := Select([]picks.ScoredPick{lo, hi, mid}, day)
	require.Len(t, out, 3)
	assert.Equal(t, "e2", out[0].Candidate.EventID)
	assert.Equal(t, "e3", out[1].Candidate.EventID)
	assert.Equal(t, "e1", out[2].Candidate.EventID)
}

func TestTitaniumRequiresThreeEnginesAtBar(t *testing.T) {
	p := picks.ScoredPick{AIScore: 8.2, ResearchScore: 8.4, EsotericScore: 8.0, JarvisScore: 7.5, FinalScore: 8.3}
	assert.True(t, IsTitanium(p))
	assert.Equal(t, contract.TierTitanium, Tier(p))

	p = picks.ScoredPick{AIScore: 8.2, ResearchScore: 8.4, EsotericScore: 7.9, JarvisScore: 7.9, FinalScore: 8.3}
	assert.False(t, IsTitanium(p))
	assert.NotEqual(t, contract.TierTitanium, Tier(p))
}

func TestGoldStarGate(t *testing.T) {
	p := picks.ScoredPick{AIScore: 7.0, ResearchScore: 6.0, EsotericScore: 4.5, JarvisScore: 6.6, FinalScore: 7.6}
	assert.Equal(t, contract.TierGoldStar, Tier(p))

	// One gate short (jarvis) drops it out of gold star.
	p.JarvisScore = 6.4
	assert.NotEqual(t, contract.TierGoldStar, Tier(p))
}

func TestSilverAndStandardTiers(t *testing.T) {
	p := picks.ScoredPick{AIScore: 6.0, ResearchScore: 6.0, EsotericScore: 3.0, JarvisScore: 6.0, FinalScore: 7.2}
	assert.Equal(t, contract.TierSilver, Tier(p))

	p.FinalScore = 6.8
	assert.Equal(t, contract.TierStandard, Tier(p))
}
