// Package learning holds the closed loop: the statistical auto-grader and
// the rule-based trap engine. Trap writes win when the two touch the same
// parameter; the grader defers.
package learning

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// GameResult is one final score plus per-player stat lines, keyed for grading.
type GameResult struct {
	EventID     string                        `json:"event_id"`
	HomeTeam    string                        `json:"home_team"`
	AwayTeam    string                        `json:"away_team"`
	HomeScore   float64                       `json:"home_score"`
	AwayScore   float64                       `json:"away_score"`
	Final       bool                          `json:"final"`
	PlayerStats map[string]map[string]float64 `json:"player_stats,omitempty"` // player -> stat -> value
}

// Grader grades persisted predictions against final results and turns graded
// history into bounded weight adjustments.
type Grader struct {
	store *persistence.Store
	traps *TrapEngine
	log   zerolog.Logger
}

// NewGrader wires the grader to the store and the trap ledger it defers to.
func NewGrader(store *persistence.Store, traps *TrapEngine, logger zerolog.Logger) *Grader {
	return &Grader{store: store, traps: traps, log: logger.With().Str("component", "grader").Logger()}
}

// GradeDay appends outcome rows for every ungraded prediction of the ET day
// that has a final result. Re-running for the same day is a no-op for picks
// already graded.
func (g *Grader) GradeDay(dateET string, results map[string]GameResult) (int, error) {
	rows, err := g.store.LoadPredictions(dateET)
	if err != nil {
		return 0, err
	}
	graded := 0
	for _, row := range rows {
		if row.Outcome != nil {
			continue
		}
		res, ok := results[row.Prediction.EventID]
		if !ok || !res.Final {
			continue
		}
		out, ok := Grade(row.Prediction, res)
		if !ok {
			continue
		}
		if err := g.store.AppendOutcome(out); err != nil {
			return graded, err
		}
		graded++
	}
	g.log.Info().Str("date_et", dateET).Int("graded", graded).Msg("daily grading complete")
	return graded, nil
}

// Grade settles a single prediction. The second return is false when the
// result does not carry what the pick needs (e.g. missing player line).
func Grade(pred picks.PredictionRecord, res GameResult) (picks.OutcomeRecord, bool) {
	out := picks.OutcomeRecord{SchemaVersion: 2, PickID: pred.PickID, GradedAt: time.Now().UTC()}
	margin := res.HomeScore - res.AwayScore
	total := res.HomeScore + res.AwayScore
	side := sideOf(pred, res)

	switch pred.PickType {
	case picks.TypeMoneyline, picks.TypeSharp:
		switch {
		case margin == 0:
			out.Outcome = "PUSH"
		case (side == "home") == (margin > 0):
			out.Outcome = "HIT"
		default:
			out.Outcome = "MISS"
		}
	case picks.TypeSpread:
		// Line is quoted from the selection's perspective.
		cover := margin + pred.Line
		if side == "away" {
			cover = -margin + pred.Line
		}
		out.ActualValue = cover
		switch {
		case cover == 0:
			out.Outcome = "PUSH"
		case cover > 0:
			out.Outcome = "HIT"
		default:
			out.Outcome = "MISS"
		}
	case picks.TypeTotal:
		out.ActualValue = total
		out.ErrorMag = math.Abs(total - pred.Line)
		switch {
		case total == pred.Line:
			out.Outcome = "PUSH"
		case (side == "over") == (total > pred.Line):
			out.Outcome = "HIT"
		default:
			out.Outcome = "MISS"
		}
	case picks.TypeProp:
		stats, ok := res.PlayerStats[pred.Player]
		if !ok {
			return out, false
		}
		actual, ok := stats[pred.StatType]
		if !ok {
			return out, false
		}
		out.ActualValue = actual
		out.ErrorMag = math.Abs(actual - pred.Line)
		switch {
		case actual == pred.Line:
			out.Outcome = "PUSH"
		case (side == "over") == (actual > pred.Line):
			out.Outcome = "HIT"
		default:
			out.Outcome = "MISS"
		}
	default:
		return out, false
	}
	return out, true
}

func sideOf(pred picks.PredictionRecord, res GameResult) string {
	sel := strings.ToLower(pred.Selection)
	switch {
	case sel == "over" || strings.HasPrefix(sel, "over "):
		return "over"
	case sel == "under" || strings.HasPrefix(sel, "under "):
		return "under"
	case strings.EqualFold(pred.Selection, res.AwayTeam) || strings.EqualFold(pred.Selection, pred.AwayTeam):
		return "away"
	}
	return "home"
}

// signalStat accumulates decay-weighted performance for one
// (sport, market, signal) key.
type signalStat struct {
	Sport  string
	Market string
	Signal string

	weightSum float64
	hitSum    float64
	errSum    float64
	samples   int
}

// Adjustment is one applied weight change, persisted to the audit log.
type Adjustment struct {
	Sport     string  `json:"sport"`
	Market    string  `json:"market"`
	Signal    string  `json:"signal"`
	HitRate   float64 `json:"hit_rate"`
	MeanError float64 `json:"mean_error"`
	Samples   int     `json:"samples"`
	Delta     float64 `json:"delta"`
	Skipped   string  `json:"skipped_reason,omitempty"`
}

// AuditDoc is the daily grader audit artifact.
type AuditDoc struct {
	DateET      string       `json:"date_et"`
	GradedSeen  int          `json:"graded_samples_seen"`
	UsedSamples int          `json:"samples_used_for_training"`
	Adjustments []Adjustment `json:"adjustments"`
	GeneratedAt string       `json:"generated_at_et"`
}

// LessonDoc is the one-per-day narrative artifact.
type LessonDoc struct {
	DateET  string   `json:"date_et"`
	Lessons []string `json:"lessons"`
}

// Retrain runs the statistical pass: decay-weighted per-signal stats over the
// lookback window, bounded multiplier nudges, trap-deferral, audit + lesson.
func (g *Grader) Retrain(now time.Time) (AuditDoc, error) {
	dateET := timeauth.FormatETDate(now)
	doc := AuditDoc{DateET: dateET, GeneratedAt: timeauth.FormatETTimestamp(now)}

	rows, err := g.store.LoadPredictions("")
	if err != nil {
		return doc, err
	}
	cutoff := now.AddDate(0, 0, -contract.GraderLookbackDays)
	stats := map[string]*signalStat{}
	for _, row := range rows {
		if row.Outcome == nil {
			continue
		}
		doc.GradedSeen++
		day, err := timeauth.ParseETDate(row.Prediction.DateET)
		if err != nil || day.Before(cutoff) {
			continue
		}
		doc.UsedSamples++
		age := now.Sub(day).Hours() / 24
		w := math.Pow(contract.GraderDecayPerDay, math.Max(age, 0))
		hit := 0.0
		if row.Outcome.Outcome == "HIT" {
			hit = 1.0
		}
		if row.Outcome.Outcome == "PUSH" {
			continue
		}
		for sig := range row.Prediction.SignalContribs {
			key := row.Prediction.Sport + "|" + row.Prediction.Market + "|" + sig
			st, ok := stats[key]
			if !ok {
				st = &signalStat{Sport: row.Prediction.Sport, Market: row.Prediction.Market, Signal: sig}
				stats[key] = st
			}
			st.weightSum += w
			st.hitSum += w * hit
			st.errSum += w * row.Outcome.ErrorMag
			st.samples++
		}
	}

	weights, err := g.store.LoadWeights()
	if err != nil {
		return doc, err
	}
	for _, st := range stats {
		if st.weightSum <= 0 || st.samples < 5 {
			continue
		}
		hitRate := st.hitSum / st.weightSum
		meanErr := st.errSum / st.weightSum
		adj := Adjustment{
			Sport: st.Sport, Market: st.Market, Signal: st.Signal,
			HitRate: hitRate, MeanError: meanErr, Samples: st.samples,
		}
		// Bias away from 50% becomes a bounded multiplier nudge.
		adj.Delta = contract.Clamp((hitRate-0.5)*2*contract.GraderMaxAdjustment,
			-contract.GraderMaxAdjustment, contract.GraderMaxAdjustment)
		engine, param := engineOf(st.Signal)
		if g.traps != nil && g.traps.TouchedWithin(engine, param, time.Duration(contract.TrapCooldownHours)*time.Hour, now) {
			adj.Skipped = "trap adjustment within cooldown"
			adj.Delta = 0
		}
		if adj.Delta != 0 {
			key := persistence.WeightKey(st.Sport, st.Market)
			byKey := weights.Signals[key]
			if byKey == nil {
				byKey = map[string]float64{}
				weights.Signals[key] = byKey
			}
			cur, ok := byKey[st.Signal]
			if !ok {
				cur = 1.0
			}
			byKey[st.Signal] = cur + adj.Delta
		}
		doc.Adjustments = append(doc.Adjustments, adj)
	}

	if err := g.store.SaveWeights(weights); err != nil {
		return doc, err
	}
	if err := g.store.WriteAudit(dateET, doc); err != nil {
		return doc, err
	}
	lesson := LessonDoc{DateET: dateET, Lessons: lessonsFrom(doc)}
	if err := g.store.WriteLesson(dateET, lesson); err != nil {
		return doc, err
	}
	g.log.Info().Str("date_et", dateET).
		Int("graded_seen", doc.GradedSeen).
		Int("used", doc.UsedSamples).
		Int("adjustments", len(doc.Adjustments)).
		Msg("retrain complete")
	return doc, nil
}

// engineOf splits a prefixed contribution key into its engine and bare
// signal name. Context-modifier signals carry no prefix.
func engineOf(sig string) (string, string) {
	for _, eng := range []string{"ai", "research", "esoteric", "jarvis", "boost"} {
		if strings.HasPrefix(sig, eng+"_") {
			return eng, strings.TrimPrefix(sig, eng+"_")
		}
	}
	return "context", sig
}

func lessonsFrom(doc AuditDoc) []string {
	var out []string
	for _, a := range doc.Adjustments {
		switch {
		case a.Skipped != "":
			out = append(out, fmt.Sprintf("%s/%s %s: held (%s)", a.Sport, a.Market, a.Signal, a.Skipped))
		case a.Delta > 0:
			out = append(out, fmt.Sprintf("%s/%s %s hitting %.0f%%, multiplier +%.3f", a.Sport, a.Market, a.Signal, a.HitRate*100, a.Delta))
		case a.Delta < 0:
			out = append(out, fmt.Sprintf("%s/%s %s hitting %.0f%%, multiplier %.3f", a.Sport, a.Market, a.Signal, a.HitRate*100, a.Delta))
		}
	}
	if len(out) == 0 {
		out = append(out, "no adjustments warranted today")
	}
	return out
}
