package persistence

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func samplePrediction(id, dateET string) picks.PredictionRecord {
	return picks.PredictionRecord{
		SchemaVersion: 2,
		PickID:        id,
		DateET:        dateET,
		Sport:         "NBA",
		PickType:      "GAME",
		Selection:     "Knicks -3.5",
		Market:        "spread",
		Line:          -3.5,
		OddsUS:        -110,
		HomeTeam:      "Knicks",
		AwayTeam:      "Celtics",
		EventID:       "evt1",
		FinalScore:    7.8,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestNewStoreRequiresMount(t *testing.T) {
	_, err := NewStore("", zerolog.Nop())
	assert.Error(t, err)
}

func TestResolveRejectsEscape(t *testing.T) {
	s := testStore(t)
	_, err := s.resolve("../outside")
	assert.Error(t, err)

	err = s.appendLine("../outside/picks.jsonl", map[string]string{"x": "y"})
	assert.Error(t, err)
}

func TestPredictionOutcomeJoin(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AppendPrediction(samplePrediction("p1", "2026-03-15")))
	require.NoError(t, s.AppendPrediction(samplePrediction("p2", "2026-03-15")))
	require.NoError(t, s.AppendOutcome(picks.OutcomeRecord{
		SchemaVersion: 2,
		PickID:        "p1",
		Outcome:       "HIT",
		ActualValue:   -6,
		GradedAt:      time.Now().UTC(),
	}))

	rows, err := s.LoadPredictions("2026-03-15")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Outcome)
	assert.Equal(t, "HIT", rows[0].Outcome.Outcome)
	assert.Nil(t, rows[1].Outcome)

	graded, err := s.HasOutcomesForDay("2026-03-15")
	require.NoError(t, err)
	assert.True(t, graded)

	graded, err = s.HasOutcomesForDay("2026-03-16")
	require.NoError(t, err)
	assert.False(t, graded)
}

func TestLoadPredictionsFiltersByDay(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AppendPrediction(samplePrediction("p1", "2026-03-15")))
	require.NoError(t, s.AppendPrediction(samplePrediction("p2", "2026-03-16")))

	rows, err := s.LoadPredictions("2026-03-16")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].Prediction.PickID)

	all, err := s.LoadPredictions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWeightsSeparateFromPredictions(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AppendPrediction(samplePrediction("p1", "2026-03-15")))

	doc, err := s.LoadWeights()
	require.NoError(t, err)
	assert.Empty(t, doc.Signals)

	doc.SchemaVersion = 1
	doc.Signals = map[string]map[string]float64{WeightKey("nba", "SPREAD"): {"research_sharp": 1.03}}
	require.NoError(t, s.SaveWeights(doc))

	// Rewriting weights leaves the prediction log untouched.
	rows, err := s.LoadPredictions("2026-03-15")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	back, err := s.LoadWeights()
	require.NoError(t, err)
	assert.Equal(t, 1.03, back.Signals["NBA|spread"]["research_sharp"])
	assert.NotEmpty(t, back.UpdatedAtET)
}

func TestLineHistoryRoundTrip(t *testing.T) {
	s := testStore(t)
	snaps := []LineSnapshot{
		{EventID: "evt/one", Sport: "NBA", Market: "spread", Book: "dk", Line: -3.5, CapturedAt: time.Now().UTC()},
		{EventID: "evt/one", Sport: "NBA", Market: "spread", Book: "dk", Line: -4.0, CapturedAt: time.Now().UTC()},
	}
	require.NoError(t, s.AppendLineSnapshots(snaps))

	// Sanitized file token maps the raw id onto one file.
	got, err := s.LoadLineHistory("evt/one")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, -3.5, got[0].Line)
	assert.Equal(t, -4.0, got[1].Line)
}

func TestHeartbeatRoundTrip(t *testing.T) {
	s := testStore(t)
	hb, err := s.ReadHeartbeat("grade-daily")
	require.NoError(t, err)
	assert.Nil(t, hb)

	want := Heartbeat{JobID: "grade-daily", RanAt: time.Now().UTC().Truncate(time.Second), Status: "OK"}
	require.NoError(t, s.WriteHeartbeat(want))

	hb, err = s.ReadHeartbeat("grade-daily")
	require.NoError(t, err)
	require.NotNil(t, hb)
	assert.Equal(t, "OK", hb.Status)
	assert.True(t, want.RanAt.Equal(hb.RanAt))
}

func TestProveArtifact(t *testing.T) {
	s := testStore(t)
	assert.False(t, s.ProveArtifact("grader_data/models/lstm_nba.json").Exists)

	require.NoError(t, s.WriteModelArtifact("grader_data/models/lstm_nba.json", map[string]string{"kind": "lstm"}))
	proof := s.ProveArtifact("grader_data/models/lstm_nba.json")
	assert.True(t, proof.Exists)
	assert.Positive(t, proof.Size)
	assert.NotEmpty(t, proof.MtimeISO)
}

func TestReadLinesSkipsMalformedRows(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.AppendPrediction(samplePrediction("p1", "2026-03-15")))
	require.NoError(t, s.appendLine(PredictionsPath(), map[string]int{"not_a_pick": 1}))

	rows, err := s.LoadPredictions("2026-03-15")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSanitizeFileToken(t *testing.T) {
	assert.Equal(t, "evt_one", sanitizeFileToken("evt/one"))
	assert.Equal(t, "unknown", sanitizeFileToken(""))
	assert.Equal(t, "a-b_c9", sanitizeFileToken("a-b_c9"))
}
