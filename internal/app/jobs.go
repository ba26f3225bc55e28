package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/learning"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/scheduler"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

const jobTimeout = 5 * time.Minute

// RegisterJobs attaches every recurring job to the scheduler. Triggers are
// ET-anchored cron expressions; bodies are idempotent.
func RegisterJobs(s *scheduler.Scheduler, e *Engine, grader *learning.Grader, traps *learning.TrapEngine, sports []string, logger zerolog.Logger) error {
	log := logger.With().Str("component", "jobs").Logger()

	jobs := []struct {
		id, name, trigger string
		fn                scheduler.JobFunc
	}{
		{scheduler.JobGradeDaily, "Daily grading", "0 6 * * *", func() error {
			return e.gradeYesterday(grader, sports)
		}},
		{scheduler.JobTrapEval, "Trap evaluation", "15 6 * * *", func() error {
			return e.evaluateTraps(traps, sports)
		}},
		{scheduler.JobAuditLesson, "Audit and lesson write", "20 6 * * *", func() error {
			_, err := grader.Retrain(timeauth.NowET())
			return err
		}},
		{scheduler.JobLineSnapshot, "Line snapshot capture", "*/30 * * * *", func() error {
			return e.captureLineSnapshots(sports)
		}},
		{scheduler.JobSeasonExtremes, "Season extremes update", "0 5 * * *", func() error {
			return e.updateSeasonExtremes(sports)
		}},
		{scheduler.JobTeamModelRetrain, "Team model retrain", "0 7 * * *", func() error {
			return e.retrainModels(sports, "ensemble")
		}},
		{scheduler.JobLSTMRetrain, "LSTM retrain", "0 4 * * 0", func() error {
			return e.retrainModels(sports, "lstm")
		}},
		{scheduler.JobCacheWarm, "Cache warm", "0 */4 * * *", func() error {
			return e.warmCaches(sports)
		}},
	}
	for _, j := range jobs {
		if err := s.Register(j.id, j.name, j.trigger, j.fn); err != nil {
			return err
		}
	}
	log.Info().Int("jobs", len(jobs)).Msg("jobs registered")
	return nil
}

// gradeYesterday settles the previous ET day against final scoreboards.
func (e *Engine) gradeYesterday(grader *learning.Grader, sports []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	yesterday := timeauth.NowET().AddDate(0, 0, -1)
	dateET := timeauth.FormatETDate(yesterday)
	results := map[string]learning.GameResult{}
	var teamRows []persistence.TeamResult
	for _, sport := range sports {
		games, meta := e.bundle.Odds.GetScoreboard(ctx, sport, yesterday)
		if !meta.OK() {
			continue
		}
		for _, g := range games {
			if g.Status != "FINAL" {
				continue
			}
			results[g.EventID] = learning.GameResult{
				EventID:   g.EventID,
				HomeTeam:  g.HomeTeam,
				AwayTeam:  g.AwayTeam,
				HomeScore: float64(g.HomeScore),
				AwayScore: float64(g.AwayScore),
				Final:     true,
			}
			teamRows = append(teamRows,
				persistence.TeamResult{
					Sport: sport, Team: g.HomeTeam, Opponent: g.AwayTeam, DateET: dateET,
					GameTime: g.StartTime, Won: g.HomeScore > g.AwayScore,
					Scored: float64(g.HomeScore), Allowed: float64(g.AwayScore),
				},
				persistence.TeamResult{
					Sport: sport, Team: g.AwayTeam, Opponent: g.HomeTeam, DateET: dateET,
					GameTime: g.StartTime, Won: g.AwayScore > g.HomeScore,
					Scored: float64(g.AwayScore), Allowed: float64(g.HomeScore),
				})
		}
	}
	if _, err := grader.GradeDay(dateET, results); err != nil {
		return err
	}
	if len(teamRows) > 0 {
		if err := e.store.AppendTeamResults(teamRows); err != nil {
			return err
		}
		e.dropForms()
	}
	return nil
}

// evaluateTraps flattens yesterday's graded games into the trap field
// vocabulary and runs every enabled trap.
func (e *Engine) evaluateTraps(traps *learning.TrapEngine, sports []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	yesterday := timeauth.NowET().AddDate(0, 0, -1)
	dateET := timeauth.FormatETDate(yesterday)

	preds, err := e.store.LoadPredictions(dateET)
	if err != nil {
		return err
	}
	byEvent := map[string]persistence.GradedPrediction{}
	for _, p := range preds {
		if p.Outcome != nil {
			byEvent[p.Prediction.EventID] = p
		}
	}

	var enriched []learning.EnrichedResult
	for _, sport := range sports {
		games, meta := e.bundle.Odds.GetScoreboard(ctx, sport, yesterday)
		if !meta.OK() {
			continue
		}
		for _, g := range games {
			if g.Status != "FINAL" {
				continue
			}
			fields := map[string]interface{}{
				"sport":            sport,
				"home_team":        g.HomeTeam,
				"away_team":        g.AwayTeam,
				"margin":           g.HomeScore - g.AwayScore,
				"total":            g.HomeScore + g.AwayScore,
				"day_of_week":      strings.ToLower(g.StartTime.Weekday().String()),
				"numerology_digit": digitSum(g.StartTime.Day()),
				"home_gematria":    ordinalGematria(g.HomeTeam),
				"away_gematria":    ordinalGematria(g.AwayTeam),
			}
			if gp, ok := byEvent[g.EventID]; ok {
				fields["outcome"] = gp.Outcome.Outcome
				fields["ai_score"] = gp.Prediction.AIScore
				fields["research_score"] = gp.Prediction.ResearchScore
				fields["esoteric_score"] = gp.Prediction.EsotericScore
				fields["jarvis_score"] = gp.Prediction.JarvisScore
			}
			enriched = append(enriched, learning.EnrichedResult{EventID: g.EventID, DateET: dateET, Fields: fields})
		}
	}
	_, err = traps.EvaluateDay(enriched, timeauth.NowET())
	return err
}

// captureLineSnapshots stores the current cross-book lines for today's games
// so the Hurst and Benford computers have history to read.
func (e *Engine) captureLineSnapshots(sports []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	now := timeauth.NowET()
	var snaps []persistence.LineSnapshot
	for _, sport := range sports {
		games, meta := e.bundle.Odds.GetScoreboard(ctx, sport, now)
		if !meta.OK() {
			continue
		}
		for _, g := range games {
			board, bMeta := e.bundle.Odds.GetBoard(ctx, sport, g.EventID)
			if !bMeta.OK() {
				continue
			}
			for _, q := range board.Quotes {
				snaps = append(snaps, persistence.LineSnapshot{
					EventID:    g.EventID,
					Sport:      sport,
					Market:     strings.ToLower(q.Market),
					Book:       q.Book,
					Line:       q.Line,
					CapturedAt: time.Now().UTC(),
				})
			}
		}
	}
	return e.store.AppendLineSnapshots(snaps)
}

// updateSeasonExtremes recomputes each sport's season total average from the
// recent graded history.
func (e *Engine) updateSeasonExtremes(sports []string) error {
	preds, err := e.store.LoadPredictions("")
	if err != nil {
		return err
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, p := range preds {
		if p.Outcome == nil || p.Prediction.PickType != "TOTAL" || p.Outcome.ActualValue == 0 {
			continue
		}
		sums[p.Prediction.Sport] += p.Outcome.ActualValue
		counts[p.Prediction.Sport]++
	}
	for _, sport := range sports {
		if counts[sport] >= 10 {
			e.SetSeasonAverage(sport, sums[sport]/float64(counts[sport]))
		}
	}
	return nil
}

// modelArtifact is the retrain output; scoring only checks existence and
// recency, so the artifact carries its own provenance.
type modelArtifact struct {
	Kind         string    `json:"kind"`
	Sport        string    `json:"sport"`
	SamplesSeen  int       `json:"samples_seen"`
	SamplesUsed  int       `json:"samples_used"`
	TrainedAt    time.Time `json:"trained_at"`
	HitRate      float64   `json:"hit_rate"`
	SchemaNumber int       `json:"schema_number"`
}

// retrainModels rebuilds the per-sport model artifacts from graded history.
// With too few samples the artifact is not written and the AI engine stays on
// its heuristic path.
func (e *Engine) retrainModels(sports []string, kind string) error {
	preds, err := e.store.LoadPredictions("")
	if err != nil {
		return err
	}
	for _, sport := range sports {
		seen, used, hits := 0, 0, 0
		for _, p := range preds {
			if p.Prediction.Sport != sport {
				continue
			}
			seen++
			if p.Outcome == nil || p.Outcome.Outcome == "PUSH" {
				continue
			}
			if kind == "lstm" && p.Prediction.PickType != "PROP" {
				continue
			}
			used++
			if p.Outcome.Outcome == "HIT" {
				hits++
			}
		}
		if used < 25 {
			continue
		}
		art := modelArtifact{
			Kind:         kind,
			Sport:        sport,
			SamplesSeen:  seen,
			SamplesUsed:  used,
			TrainedAt:    time.Now().UTC(),
			HitRate:      float64(hits) / float64(used),
			SchemaNumber: 1,
		}
		rel := ensembleArtifact(sport)
		if kind == "lstm" {
			rel = lstmArtifact(sport)
		}
		if err := e.store.WriteModelArtifact(rel, art); err != nil {
			return err
		}
		e.dropModel(rel)
	}
	return nil
}

// warmCaches primes the shared provider cache with the cheap daily reads.
func (e *Engine) warmCaches(sports []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	now := timeauth.NowET()
	for _, sport := range sports {
		e.bundle.Odds.GetScoreboard(ctx, sport, now)
		e.bundle.Playbook.GetSplits(ctx, sport, now)
		e.bundle.Playbook.GetInjuries(ctx, sport)
	}
	e.bundle.Space.GetKpIndex(ctx)
	e.bundle.Astro.GetMoonPhase(ctx, now)
	return nil
}

// SnapshotTelemetry persists the daily request-telemetry rollup.
func (e *Engine) SnapshotTelemetry(stats map[string]telemetry.IntegrationStats) error {
	return e.store.WriteTelemetrySnapshot(timeauth.FormatETDate(timeauth.NowET()), stats)
}

func digitSum(n int) int {
	for n > 9 {
		s := 0
		for n > 0 {
			s += n % 10
			n /= 10
		}
		n = s
	}
	return n
}

func ordinalGematria(name string) int {
	total := 0
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			total += int(r-'A') + 1
		}
	}
	return total
}
