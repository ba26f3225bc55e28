package learning

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
)

// Condition is one node of a trap's condition tree. A node either compares a
// field (Field/Op/Value) or combines children (All/Any). Empty nodes match.
type Condition struct {
	Field string      `json:"field,omitempty"`
	Op    string      `json:"op,omitempty"` // eq, ne, gt, gte, lt, lte
	Value interface{} `json:"value,omitempty"`
	All   []Condition `json:"all,omitempty"`
	Any   []Condition `json:"any,omitempty"`
}

// Eval walks the tree over the enriched result fields.
func (c Condition) Eval(fields map[string]interface{}) bool {
	if len(c.All) > 0 {
		for _, child := range c.All {
			if !child.Eval(fields) {
				return false
			}
		}
		return true
	}
	if len(c.Any) > 0 {
		for _, child := range c.Any {
			if child.Eval(fields) {
				return true
			}
		}
		return false
	}
	if c.Field == "" {
		return true
	}
	got, ok := fields[c.Field]
	if !ok {
		return false
	}
	gn, gIsNum := asFloat(got)
	wn, wIsNum := asFloat(c.Value)
	if gIsNum && wIsNum {
		switch c.Op {
		case "eq":
			return gn == wn
		case "ne":
			return gn != wn
		case "gt":
			return gn > wn
		case "gte":
			return gn >= wn
		case "lt":
			return gn < wn
		case "lte":
			return gn <= wn
		}
		return false
	}
	gs := fmt.Sprintf("%v", got)
	ws := fmt.Sprintf("%v", c.Value)
	switch c.Op {
	case "eq":
		return gs == ws
	case "ne":
		return gs != ws
	}
	return false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Trap actions. WEIGHT_ADJUST nudges the parameter multiplier;
// AUDIT_TRIGGER records the match in the ledger for human review and never
// touches weights.
const (
	ActionWeightAdjust = "WEIGHT_ADJUST"
	ActionAuditTrigger = "AUDIT_TRIGGER"
)

// TrapDefinition is a human-specified hypothesis: when the condition holds on
// a graded game in the trap's sport (and team, when set), take the action on
// one engine parameter, within the guards.
type TrapDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Team        string    `json:"team,omitempty"` // restricts to games involving the team
	Engine      string    `json:"engine"`
	Parameter   string    `json:"parameter"`
	Action      string    `json:"action"` // WEIGHT_ADJUST (default) or AUDIT_TRIGGER
	Adjust      float64   `json:"adjust"` // fractional, |Adjust| <= 0.05 enforced
	Condition   Condition `json:"condition"`
	MaxLifetime int       `json:"max_lifetime_triggers,omitempty"`
	Enabled     bool      `json:"enabled"`
}

// appliesTo checks the definition's sport and team scope against one game's
// enriched fields.
func (def TrapDefinition) appliesTo(fields map[string]interface{}) bool {
	if def.Sport != "" && !strings.EqualFold(fieldString(fields["sport"]), def.Sport) {
		return false
	}
	if def.Team != "" &&
		!strings.EqualFold(fieldString(fields["home_team"]), def.Team) &&
		!strings.EqualFold(fieldString(fields["away_team"]), def.Team) {
		return false
	}
	return true
}

func fieldString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// EnrichedResult is one graded game flattened into the field vocabulary the
// condition trees address: sport, home_team, away_team, outcome, margin,
// total, day_of_week, numerology_digit, team_gematria, and the four pre-game
// engine scores.
type EnrichedResult struct {
	EventID string                 `json:"event_id"`
	DateET  string                 `json:"date_et"`
	Fields  map[string]interface{} `json:"fields"`
}

// trapApplied is the persisted adjustment row; the ledger replays these.
type trapApplied struct {
	TrapID    string    `json:"trap_id"`
	Engine    string    `json:"engine"`
	Parameter string    `json:"parameter"`
	Adjust    float64   `json:"adjust"`
	EventID   string    `json:"event_id"`
	AppliedAt time.Time `json:"applied_at"`
	Action    string    `json:"action"` // WEIGHT_ADJUST or AUDIT_TRIGGER
}

type trapEvaluation struct {
	TrapID      string    `json:"trap_id"`
	EventID     string    `json:"event_id"`
	Matched     bool      `json:"matched"`
	Applied     bool      `json:"applied"`
	GuardReason string    `json:"guard_reason,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// TrapEngine evaluates trap definitions against graded games and enforces
// the hard limits: 5% per adjustment, 15% cumulative per parameter, 24h
// cooldown, 3 triggers per trap per week.
type TrapEngine struct {
	store *persistence.Store
	log   zerolog.Logger

	mu      sync.Mutex
	defs    []TrapDefinition
	applied []trapApplied
}

// NewTrapEngine loads definitions and replays the adjustment ledger so the
// guards survive restarts.
func NewTrapEngine(store *persistence.Store, logger zerolog.Logger) (*TrapEngine, error) {
	t := &TrapEngine{store: store, log: logger.With().Str("component", "traps").Logger()}
	if err := store.ReadTrapLines("traps", func(raw []byte) {
		var def TrapDefinition
		if json.Unmarshal(raw, &def) == nil && def.ID != "" {
			t.defs = append(t.defs, def)
		}
	}); err != nil {
		return nil, err
	}
	if err := store.ReadTrapLines("adjustments", func(raw []byte) {
		var a trapApplied
		if json.Unmarshal(raw, &a) == nil {
			t.applied = append(t.applied, a)
		}
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// Register persists a new trap definition.
func (t *TrapEngine) Register(def TrapDefinition) error {
	if def.Action == "" {
		def.Action = ActionWeightAdjust
	}
	if def.Action != ActionWeightAdjust && def.Action != ActionAuditTrigger {
		return fmt.Errorf("traps: %s has unknown action %q", def.ID, def.Action)
	}
	if math.Abs(def.Adjust) > contract.TrapMaxSingleAdjust {
		return fmt.Errorf("traps: %s adjust %.3f exceeds single-trigger limit %.2f",
			def.ID, def.Adjust, contract.TrapMaxSingleAdjust)
	}
	if err := t.store.AppendTrap(def); err != nil {
		return err
	}
	t.mu.Lock()
	t.defs = append(t.defs, def)
	t.mu.Unlock()
	return nil
}

// Definitions returns a copy of the loaded traps.
func (t *TrapEngine) Definitions() []TrapDefinition {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrapDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// TouchedWithin reports whether any trap adjusted the (engine, parameter)
// pair inside the window. The auto-grader defers to this. Audit triggers
// never touch weights and do not count.
func (t *TrapEngine) TouchedWithin(engine, parameter string, window time.Duration, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.applied {
		if a.Action == ActionAuditTrigger {
			continue
		}
		if a.Engine == engine && a.Parameter == parameter && now.Sub(a.AppliedAt) < window {
			return true
		}
	}
	return false
}

// EvaluateDay runs every enabled trap over every enriched result and applies
// passing adjustments. Returns the count of applied WEIGHT_ADJUSTs.
func (t *TrapEngine) EvaluateDay(results []EnrichedResult, now time.Time) (int, error) {
	appliedCount := 0
	for _, res := range results {
		for _, def := range t.Definitions() {
			if !def.Enabled || !def.appliesTo(res.Fields) {
				continue
			}
			ev := trapEvaluation{TrapID: def.ID, EventID: res.EventID, EvaluatedAt: now}
			ev.Matched = def.Condition.Eval(res.Fields)
			if ev.Matched {
				if reason := t.guard(def, now); reason != "" {
					ev.GuardReason = reason
					t.log.Debug().Str("trap", def.ID).Str("guard", reason).Msg("trap held by guard")
				} else {
					if err := t.apply(def, res.EventID, now); err != nil {
						return appliedCount, err
					}
					ev.Applied = true
					if def.Action != ActionAuditTrigger {
						appliedCount++
					}
				}
			}
			if err := t.store.AppendTrapEvaluation(ev); err != nil {
				return appliedCount, err
			}
		}
	}
	return appliedCount, nil
}

// guard returns the first violated limit, empty when all pass.
func (t *TrapEngine) guard(def TrapDefinition, now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cumulative := 0.0
	weekly := 0
	lifetime := 0
	var lastApplied time.Time
	for _, a := range t.applied {
		if a.Parameter == def.Parameter && a.Engine == def.Engine {
			cumulative += math.Abs(a.Adjust)
		}
		if a.TrapID == def.ID {
			lifetime++
			if a.AppliedAt.After(lastApplied) {
				lastApplied = a.AppliedAt
			}
			if now.Sub(a.AppliedAt) < 7*24*time.Hour {
				weekly++
			}
		}
	}
	switch {
	case cumulative+math.Abs(def.Adjust) > contract.TrapMaxCumulative:
		return fmt.Sprintf("cumulative limit %.2f reached on %s.%s", contract.TrapMaxCumulative, def.Engine, def.Parameter)
	case !lastApplied.IsZero() && now.Sub(lastApplied) < time.Duration(contract.TrapCooldownHours)*time.Hour:
		return fmt.Sprintf("cooldown %dh active", contract.TrapCooldownHours)
	case weekly >= contract.TrapMaxTriggersWeekly:
		return fmt.Sprintf("weekly trigger limit %d reached", contract.TrapMaxTriggersWeekly)
	case def.MaxLifetime > 0 && lifetime >= def.MaxLifetime:
		return "lifetime trigger limit reached"
	}
	return ""
}

func (t *TrapEngine) apply(def TrapDefinition, eventID string, now time.Time) error {
	action := def.Action
	if action == "" {
		action = ActionWeightAdjust
	}
	adj := contract.Clamp(def.Adjust, -contract.TrapMaxSingleAdjust, contract.TrapMaxSingleAdjust)
	if action == ActionAuditTrigger {
		adj = 0
	}
	row := trapApplied{
		TrapID: def.ID, Engine: def.Engine, Parameter: def.Parameter,
		Adjust: adj, EventID: eventID, AppliedAt: now, Action: action,
	}
	if err := t.store.AppendTrapAdjustment(row); err != nil {
		return err
	}
	if action == ActionWeightAdjust {
		weights, err := t.store.LoadWeights()
		if err != nil {
			return err
		}
		key := persistence.WeightKey(def.Sport, def.Engine)
		byKey := weights.Signals[key]
		if byKey == nil {
			byKey = map[string]float64{}
			weights.Signals[key] = byKey
		}
		cur, ok := byKey[def.Parameter]
		if !ok {
			cur = 1.0
		}
		byKey[def.Parameter] = cur * (1 + adj)
		if err := t.store.SaveWeights(weights); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.applied = append(t.applied, row)
	t.mu.Unlock()
	t.log.Info().Str("trap", def.ID).
		Str("parameter", def.Engine+"."+def.Parameter).
		Str("action", action).
		Float64("adjust", adj).
		Msg("trap applied")
	return nil
}
