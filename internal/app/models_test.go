package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/config"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/signals"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := persistence.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return New(config.Config{WorkerPoolSize: 2}, nil, store, nil, zerolog.Nop())
}

func TestPredictorReadsRetrainArtifacts(t *testing.T) {
	e := testEngine(t)
	game := signals.Inputs{Cand: picks.Candidate{Sport: "NBA", PickType: picks.TypeSpread}}

	_, ok := e.predictFromArtifacts(game)
	assert.False(t, ok, "no artifact on disk yet")

	art := modelArtifact{Kind: "ensemble", Sport: "NBA", SamplesSeen: 50, SamplesUsed: 40, HitRate: 0.6, SchemaNumber: 1}
	require.NoError(t, e.store.WriteModelArtifact(ensembleArtifact("NBA"), art))

	score, ok := e.predictFromArtifacts(game)
	require.True(t, ok)
	assert.InDelta(t, 6.0, score, 1e-9)

	// Props read the LSTM artifact, which was never written.
	prop := signals.Inputs{Cand: picks.Candidate{Sport: "NBA", PickType: picks.TypeProp, Player: "Test Player"}}
	_, ok = e.predictFromArtifacts(prop)
	assert.False(t, ok)
}

func TestPredictorRefreshesAfterRetrain(t *testing.T) {
	e := testEngine(t)
	rel := ensembleArtifact("NFL")
	game := signals.Inputs{Cand: picks.Candidate{Sport: "NFL", PickType: picks.TypeTotal}}

	first := modelArtifact{Kind: "ensemble", Sport: "NFL", SamplesUsed: 30, HitRate: 0.5}
	require.NoError(t, e.store.WriteModelArtifact(rel, first))
	score, ok := e.predictFromArtifacts(game)
	require.True(t, ok)
	assert.InDelta(t, 5.0, score, 1e-9)

	// A retrain rewrites the artifact and drops the cached copy.
	second := modelArtifact{Kind: "ensemble", Sport: "NFL", SamplesUsed: 60, HitRate: 0.7}
	require.NoError(t, e.store.WriteModelArtifact(rel, second))
	e.dropModel(rel)

	score, ok = e.predictFromArtifacts(game)
	require.True(t, ok)
	assert.InDelta(t, 7.0, score, 1e-9)
}

func TestPredictorIgnoresEmptyArtifact(t *testing.T) {
	e := testEngine(t)
	rel := ensembleArtifact("MLB")
	require.NoError(t, e.store.WriteModelArtifact(rel, modelArtifact{Kind: "ensemble", Sport: "MLB"}))

	_, ok := e.modelFor(rel)
	assert.False(t, ok, "artifact without graded samples must not drive predictions")
}
