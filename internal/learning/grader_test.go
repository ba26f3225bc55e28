package learning

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

func testStore(t *testing.T) *persistence.Store {
	t.Helper()
	s, err := persistence.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func finalResult() GameResult {
	return GameResult{
		EventID:   "evt1",
		HomeTeam:  "Knicks",
		AwayTeam:  "Celtics",
		HomeScore: 100,
		AwayScore: 90,
		Final:     true,
		PlayerStats: map[string]map[string]float64{
			"Jalen Brunson": {"points": 30},
		},
	}
}

func basePrediction(pickType string) picks.PredictionRecord {
	return picks.PredictionRecord{
		SchemaVersion: 2,
		PickID:        "p1",
		DateET:        "2026-03-15",
		Sport:         "NBA",
		PickType:      pickType,
		Market:        "spread",
		HomeTeam:      "Knicks",
		AwayTeam:      "Celtics",
		EventID:       "evt1",
	}
}

func TestGradeMoneyline(t *testing.T) {
	pred := basePrediction(picks.TypeMoneyline)
	pred.Market = "moneyline"
	pred.Selection = "Knicks"
	out, ok := Grade(pred, finalResult())
	require.True(t, ok)
	assert.Equal(t, "HIT", out.Outcome)

	pred.Selection = "Celtics"
	out, _ = Grade(pred, finalResult())
	assert.Equal(t, "MISS", out.Outcome)

	tied := finalResult()
	tied.AwayScore = 100
	out, _ = Grade(pred, tied)
	assert.Equal(t, "PUSH", out.Outcome)
}

func TestGradeSpreadCover(t *testing.T) {
	pred := basePrediction(picks.TypeSpread)
	pred.Selection = "Knicks -3.5"
	pred.Line = -3.5
	out, ok := Grade(pred, finalResult())
	require.True(t, ok)
	assert.Equal(t, "HIT", out.Outcome)
	assert.Equal(t, 6.5, out.ActualValue)

	// The away side is graded against the negated margin.
	pred.Selection = "Celtics"
	pred.Line = 3.5
	out, _ = Grade(pred, finalResult())
	assert.Equal(t, "MISS", out.Outcome)
	assert.Equal(t, -6.5, out.ActualValue)
}

func TestGradeTotal(t *testing.T) {
	pred := basePrediction(picks.TypeTotal)
	pred.Market = "total"
	pred.Line = 210.5
	pred.Selection = "Under 210.5"
	out, ok := Grade(pred, finalResult())
	require.True(t, ok)
	assert.Equal(t, "HIT", out.Outcome)
	assert.Equal(t, 190.0, out.ActualValue)
	assert.Equal(t, 20.5, out.ErrorMag)

	pred.Selection = "Over 210.5"
	out, _ = Grade(pred, finalResult())
	assert.Equal(t, "MISS", out.Outcome)

	exact := finalResult()
	exact.HomeScore = 110.5
	exact.AwayScore = 100
	out, _ = Grade(pred, exact)
	assert.Equal(t, "PUSH", out.Outcome)
}

func TestGradePropNeedsPlayerStat(t *testing.T) {
	pred := basePrediction(picks.TypeProp)
	pred.Market = "player_points"
	pred.Player = "Jalen Brunson"
	pred.StatType = "points"
	pred.Line = 25.5
	pred.Selection = "Over 25.5"
	out, ok := Grade(pred, finalResult())
	require.True(t, ok)
	assert.Equal(t, "HIT", out.Outcome)
	assert.Equal(t, 30.0, out.ActualValue)

	pred.Player = "Nobody"
	_, ok = Grade(pred, finalResult())
	assert.False(t, ok)

	pred.Player = "Jalen Brunson"
	pred.StatType = "rebounds"
	_, ok = Grade(pred, finalResult())
	assert.False(t, ok)
}

func TestGradeDayIdempotent(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())

	pred := basePrediction(picks.TypeSpread)
	pred.Selection = "Knicks -3.5"
	pred.Line = -3.5
	require.NoError(t, store.AppendPrediction(pred))

	results := map[string]GameResult{"evt1": finalResult()}
	n, err := g.GradeDay("2026-03-15", results)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-running the job after the outcome row exists grades nothing.
	n, err = g.GradeDay("2026-03-15", results)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGradeDaySkipsNonFinal(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())

	pred := basePrediction(picks.TypeSpread)
	pred.Selection = "Knicks -3.5"
	pred.Line = -3.5
	require.NoError(t, store.AppendPrediction(pred))

	live := finalResult()
	live.Final = false
	n, err := g.GradeDay("2026-03-15", map[string]GameResult{"evt1": live})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func seedGradedHistory(t *testing.T, store *persistence.Store, now time.Time, outcome string) {
	t.Helper()
	day := timeauth.FormatETDate(now.AddDate(0, 0, -1))
	for i := 0; i < 6; i++ {
		pred := basePrediction(picks.TypeSpread)
		pred.PickID = "p" + string(rune('a'+i))
		pred.DateET = day
		pred.Selection = "Knicks -3.5"
		pred.Line = -3.5
		pred.SignalContribs = map[string]float64{"research_sharp": 0.25}
		require.NoError(t, store.AppendPrediction(pred))
		require.NoError(t, store.AppendOutcome(picks.OutcomeRecord{
			SchemaVersion: 2, PickID: pred.PickID, Outcome: outcome, GradedAt: now,
		}))
	}
}

func TestRetrainNudgesHotSignal(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, timeauth.ETLocation())
	seedGradedHistory(t, store, now, "HIT")

	doc, err := g.Retrain(now)
	require.NoError(t, err)
	assert.Equal(t, 6, doc.GradedSeen)
	assert.Equal(t, 6, doc.UsedSamples)
	require.Len(t, doc.Adjustments, 1)
	assert.Equal(t, "research_sharp", doc.Adjustments[0].Signal)
	assert.InDelta(t, 0.05, doc.Adjustments[0].Delta, 1e-9)

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	assert.InDelta(t, 1.05, weights.Signals["NBA|spread"]["research_sharp"], 1e-9)
}

func TestRetrainDemotesColdSignal(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, timeauth.ETLocation())
	seedGradedHistory(t, store, now, "MISS")

	doc, err := g.Retrain(now)
	require.NoError(t, err)
	require.Len(t, doc.Adjustments, 1)
	assert.InDelta(t, -0.05, doc.Adjustments[0].Delta, 1e-9)

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	assert.InDelta(t, 0.95, weights.Signals["NBA|spread"]["research_sharp"], 1e-9)
}

func TestRetrainDefersToRecentTrap(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, timeauth.ETLocation())
	seedGradedHistory(t, store, now, "HIT")

	// A trap touched the same parameter inside the cooldown window; the
	// statistical pass must hold.
	require.NoError(t, store.AppendTrapAdjustment(trapApplied{
		TrapID: "t1", Engine: "research", Parameter: "sharp",
		Adjust: 0.03, AppliedAt: now.Add(-2 * time.Hour), Action: "WEIGHT_ADJUST",
	}))
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)

	g := NewGrader(store, traps, zerolog.Nop())
	doc, err := g.Retrain(now)
	require.NoError(t, err)
	require.Len(t, doc.Adjustments, 1)
	assert.Zero(t, doc.Adjustments[0].Delta)
	assert.NotEmpty(t, doc.Adjustments[0].Skipped)

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	_, touched := weights.Signals["NBA|spread"]["research_sharp"]
	assert.False(t, touched)
}

func TestRetrainKeepsMarketsSeparate(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, timeauth.ETLocation())
	day := timeauth.FormatETDate(now.AddDate(0, 0, -1))

	// The same signal hits on spreads and misses on totals; the nudges must
	// land in separate buckets.
	for i := 0; i < 6; i++ {
		spread := basePrediction(picks.TypeSpread)
		spread.PickID = "s" + string(rune('a'+i))
		spread.DateET = day
		spread.Selection = "Knicks -3.5"
		spread.Line = -3.5
		spread.SignalContribs = map[string]float64{"research_sharp": 0.25}
		require.NoError(t, store.AppendPrediction(spread))
		require.NoError(t, store.AppendOutcome(picks.OutcomeRecord{
			SchemaVersion: 2, PickID: spread.PickID, Outcome: "HIT", GradedAt: now,
		}))

		total := basePrediction(picks.TypeTotal)
		total.PickID = "t" + string(rune('a'+i))
		total.DateET = day
		total.Market = "total"
		total.Selection = "Over 210.5"
		total.Line = 210.5
		total.SignalContribs = map[string]float64{"research_sharp": 0.25}
		require.NoError(t, store.AppendPrediction(total))
		require.NoError(t, store.AppendOutcome(picks.OutcomeRecord{
			SchemaVersion: 2, PickID: total.PickID, Outcome: "MISS", GradedAt: now,
		}))
	}

	_, err := g.Retrain(now)
	require.NoError(t, err)

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	assert.InDelta(t, 1.05, weights.Signals["NBA|spread"]["research_sharp"], 1e-9)
	assert.InDelta(t, 0.95, weights.Signals["NBA|total"]["research_sharp"], 1e-9)
}

func TestRetrainIgnoresStaleAndThinSamples(t *testing.T) {
	store := testStore(t)
	g := NewGrader(store, nil, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, timeauth.ETLocation())

	// Outside the lookback window.
	stale := basePrediction(picks.TypeSpread)
	stale.PickID = "old"
	stale.DateET = timeauth.FormatETDate(now.AddDate(0, 0, -30))
	stale.SignalContribs = map[string]float64{"sharp": 0.25}
	require.NoError(t, store.AppendPrediction(stale))
	require.NoError(t, store.AppendOutcome(picks.OutcomeRecord{
		SchemaVersion: 2, PickID: "old", Outcome: "HIT", GradedAt: now,
	}))

	// Recent but below the five-sample floor.
	fresh := basePrediction(picks.TypeSpread)
	fresh.PickID = "new"
	fresh.DateET = timeauth.FormatETDate(now.AddDate(0, 0, -1))
	fresh.SignalContribs = map[string]float64{"rlm": 0.4}
	require.NoError(t, store.AppendPrediction(fresh))
	require.NoError(t, store.AppendOutcome(picks.OutcomeRecord{
		SchemaVersion: 2, PickID: "new", Outcome: "HIT", GradedAt: now,
	}))

	doc, err := g.Retrain(now)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.GradedSeen)
	assert.Equal(t, 1, doc.UsedSamples)
	assert.Empty(t, doc.Adjustments)
}
