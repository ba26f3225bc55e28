package learning

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionEvalNumericOps(t *testing.T) {
	fields := map[string]interface{}{"margin": 7.0, "total": 212}
	cases := []struct {
		op   string
		val  interface{}
		want bool
	}{
		{"eq", 7, true},
		{"ne", 7, false},
		{"gt", 6.5, true},
		{"gte", 7, true},
		{"lt", 7, false},
		{"lte", 7, true},
	}
	for _, tc := range cases {
		c := Condition{Field: "margin", Op: tc.op, Value: tc.val}
		assert.Equal(t, tc.want, c.Eval(fields), "%s %v", tc.op, tc.val)
	}
}

func TestConditionEvalStrings(t *testing.T) {
	fields := map[string]interface{}{"day_of_week": "Sunday"}
	assert.True(t, Condition{Field: "day_of_week", Op: "eq", Value: "Sunday"}.Eval(fields))
	assert.False(t, Condition{Field: "day_of_week", Op: "ne", Value: "Sunday"}.Eval(fields))
	// Ordering ops have no string meaning.
	assert.False(t, Condition{Field: "day_of_week", Op: "gt", Value: "Monday"}.Eval(fields))
}

func TestConditionEvalTree(t *testing.T) {
	fields := map[string]interface{}{"margin": 7.0, "numerology_digit": 7}
	all := Condition{All: []Condition{
		{Field: "margin", Op: "gt", Value: 0},
		{Field: "numerology_digit", Op: "eq", Value: 7},
	}}
	assert.True(t, all.Eval(fields))

	any := Condition{Any: []Condition{
		{Field: "margin", Op: "lt", Value: 0},
		{Field: "numerology_digit", Op: "eq", Value: 7},
	}}
	assert.True(t, any.Eval(fields))

	assert.False(t, Condition{Field: "missing", Op: "eq", Value: 1}.Eval(fields))
	assert.True(t, Condition{}.Eval(fields))
}

func trapDef(id string, adjust float64) TrapDefinition {
	return TrapDefinition{
		ID:        id,
		Name:      "double digit home win",
		Sport:     "NBA",
		Engine:    "esoteric",
		Parameter: "numerology",
		Adjust:    adjust,
		Condition: Condition{Field: "margin", Op: "gte", Value: 10},
		Enabled:   true,
	}
}

func enriched(eventID string, margin float64) EnrichedResult {
	return EnrichedResult{
		EventID: eventID,
		DateET:  "2026-03-15",
		Fields: map[string]interface{}{
			"sport":     "NBA",
			"home_team": "Knicks",
			"away_team": "Celtics",
			"margin":    margin,
		},
	}
}

func TestRegisterRejectsOversizedAdjust(t *testing.T) {
	traps, err := NewTrapEngine(testStore(t), zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, traps.Register(trapDef("t1", 0.06)))
	assert.NoError(t, traps.Register(trapDef("t2", 0.05)))
	assert.Len(t, traps.Definitions(), 1)
}

func TestEvaluateDayAppliesMatchingTrap(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.03)))

	now := time.Date(2026, 3, 16, 6, 15, 0, 0, time.UTC)
	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt1", 14)}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	assert.InDelta(t, 1.03, weights.Signals["NBA|esoteric"]["numerology"], 1e-9)
	assert.True(t, traps.TouchedWithin("esoteric", "numerology", 24*time.Hour, now))
	assert.False(t, traps.TouchedWithin("research", "numerology", 24*time.Hour, now))

	evals := 0
	require.NoError(t, store.ReadTrapLines("evaluations", func([]byte) { evals++ }))
	assert.Equal(t, 1, evals)
}

func TestEvaluateDaySkipsNonMatching(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.03)))

	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt1", 3)}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	// The miss is still recorded for the audit trail.
	evals := 0
	require.NoError(t, store.ReadTrapLines("evaluations", func([]byte) { evals++ }))
	assert.Equal(t, 1, evals)
}

func TestDisabledTrapNeverFires(t *testing.T) {
	traps, err := NewTrapEngine(testStore(t), zerolog.Nop())
	require.NoError(t, err)
	def := trapDef("t1", 0.03)
	def.Enabled = false
	require.NoError(t, traps.Register(def))

	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt1", 14)}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCooldownBlocksSameDayRepeat(t *testing.T) {
	traps, err := NewTrapEngine(testStore(t), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.02)))

	now := time.Date(2026, 3, 16, 6, 15, 0, 0, time.UTC)
	n, err := traps.EvaluateDay([]EnrichedResult{
		enriched("evt1", 14),
		enriched("evt2", 12),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWeeklyTriggerLimit(t *testing.T) {
	traps, err := NewTrapEngine(testStore(t), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.02)))

	base := time.Date(2026, 3, 10, 6, 15, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt", 14)}, base.AddDate(0, 0, day+day))
		require.NoError(t, err)
		require.Equal(t, 1, n, "day %d", day)
	}

	// Fourth attempt inside the rolling week is held.
	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt", 14)}, base.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCumulativeLimitPerParameter(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.05)))

	base := time.Date(2026, 2, 1, 6, 15, 0, 0, time.UTC)
	applied := 0
	for week := 0; week < 5; week++ {
		n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt", 14)}, base.AddDate(0, 0, week*8))
		require.NoError(t, err)
		applied += n
	}
	// Three 5% triggers exhaust the 15% cumulative budget for the parameter.
	assert.Equal(t, 3, applied)
}

func TestGuardsSurviveRestart(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, traps.Register(trapDef("t1", 0.03)))

	now := time.Date(2026, 3, 16, 6, 15, 0, 0, time.UTC)
	_, err = traps.EvaluateDay([]EnrichedResult{enriched("evt1", 14)}, now)
	require.NoError(t, err)

	reloaded, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, reloaded.Definitions(), 1)
	assert.True(t, reloaded.TouchedWithin("esoteric", "numerology", 24*time.Hour, now))

	// Cooldown still holds after the reload.
	n, err := reloaded.EvaluateDay([]EnrichedResult{enriched("evt2", 14)}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterRejectsUnknownAction(t *testing.T) {
	traps, err := NewTrapEngine(testStore(t), zerolog.Nop())
	require.NoError(t, err)
	def := trapDef("t1", 0.03)
	def.Action = "DELETE_WEIGHTS"
	assert.Error(t, traps.Register(def))
}

func TestTrapScopedToSportAndTeam(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)

	nfl := trapDef("nfl-only", 0.03)
	nfl.Sport = "NFL"
	require.NoError(t, traps.Register(nfl))

	heat := trapDef("heat-only", 0.03)
	heat.Team = "Heat"
	require.NoError(t, traps.Register(heat))

	// An NBA Knicks/Celtics blowout is out of scope for both traps, so no
	// evaluation rows are written either.
	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt1", 14)}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	evals := 0
	require.NoError(t, store.ReadTrapLines("evaluations", func([]byte) { evals++ }))
	assert.Zero(t, evals)

	game := enriched("evt2", 14)
	game.Fields["away_team"] = "Heat"
	n, err = traps.EvaluateDay([]EnrichedResult{game}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuditTriggerLeavesWeights(t *testing.T) {
	store := testStore(t)
	traps, err := NewTrapEngine(store, zerolog.Nop())
	require.NoError(t, err)
	def := trapDef("t1", 0)
	def.Action = ActionAuditTrigger
	require.NoError(t, traps.Register(def))

	now := time.Date(2026, 3, 16, 6, 15, 0, 0, time.UTC)
	n, err := traps.EvaluateDay([]EnrichedResult{enriched("evt1", 14)}, now)
	require.NoError(t, err)
	assert.Zero(t, n, "audit triggers do not count as weight adjustments")

	weights, err := store.LoadWeights()
	require.NoError(t, err)
	assert.Empty(t, weights.Signals)

	// The match lands in the ledger but the grader does not defer to it.
	rows := 0
	require.NoError(t, store.ReadTrapLines("adjustments", func([]byte) { rows++ }))
	assert.Equal(t, 1, rows)
	assert.False(t, traps.TouchedWithin("esoteric", "numerology", 24*time.Hour, now))
}
