package app

import (
	"context"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/prefetch"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
	"github.com/peterostrander2/ai-betting-backend/internal/signals"
)

// assembleInputs builds the per-candidate scoring bundle from the fetched
// day, the pre-fetch cache and the store-backed artifacts. Signals stay pure;
// everything they see comes through here.
func (e *Engine) assembleInputs(ctx context.Context, cand picks.Candidate, data *fetched, pf *prefetch.Cache) signals.Inputs {
	in := signals.Inputs{Cand: cand}

	for _, g := range data.games {
		if g.EventID == cand.EventID {
			in.Game = g
			break
		}
	}
	gd := data.perGame[cand.EventID]

	in.Splits = signals.Sourced[*providers.SplitRecord]{Meta: data.splitMet}
	if data.splitMet.OK() {
		for i := range data.splits {
			s := &data.splits[i]
			if s.EventID == cand.EventID && marketMatches(s.Market, cand) && sidesMatch(s.Side, cand, in.Game) {
				in.Splits.Value = s
				break
			}
		}
	}

	in.Injuries = signals.Sourced[[]providers.InjuryReport]{Value: teamInjuries(data.injuries, cand), Meta: data.injMet}
	in.ESPNLine = signals.Sourced[float64]{Meta: providers.Meta{Provider: "espn", Status: providers.StatusNoData}}

	in.Kp = signals.Sourced[providers.KpReading]{Value: data.kp, Meta: data.kpMet}
	in.Moon = signals.Sourced[providers.MoonInfo]{Value: data.moon, Meta: data.moonMet}
	in.Flares = signals.Sourced[[]providers.SolarFlare]{Value: data.flares, Meta: data.flareMet}
	in.Quote = signals.Sourced[providers.QuoteSentiment]{Value: data.quote, Meta: data.quoteMet}
	in.MercuryRetro = e.bundle.Astro.MercuryRetrograde(cand.StartTime)

	if gd != nil {
		in.Board = signals.Sourced[providers.OddsBoard]{Value: gd.board, Meta: gd.boardMet}
		in.Officials = signals.Sourced[providers.OfficialsReport]{Value: gd.offs, Meta: gd.offsMet}
		in.Weather = signals.Sourced[providers.WeatherSnapshot]{Value: gd.weather, Meta: gd.weathMet}
		in.SERP = signals.Sourced[providers.SERPResult]{Value: gd.serp, Meta: gd.serpMet}
		in.LineHistory = gd.lineHistory[strings.ToLower(cand.Market())]
		if cand.Side == "away" {
			in.TeamPace, in.OppPace = gd.awayPace, gd.homePace
			in.DefRank = gd.homeDefRank
		} else {
			in.TeamPace, in.OppPace = gd.homePace, gd.awayPace
			in.DefRank = gd.awayDefRank
		}
		in.ExpertConsensus = expertConsensus(gd.serp, gd.serpMet, cand)
	} else {
		noData := providers.Meta{Provider: "odds", Status: providers.StatusNoData}
		in.Board = signals.Sourced[providers.OddsBoard]{Meta: noData}
		in.Officials = signals.Sourced[providers.OfficialsReport]{Meta: noData}
		in.Weather = signals.Sourced[providers.WeatherSnapshot]{Meta: providers.Meta{Provider: "weather", Status: providers.StatusNoData}}
		in.SERP = signals.Sourced[providers.SERPResult]{Meta: providers.Meta{Provider: "serp", Status: providers.StatusNoData}}
		in.ExpertConsensus = signals.Sourced[float64]{Meta: providers.Meta{Provider: "serp", Status: providers.StatusNoData}}
	}

	if entry, ok := pf.Get(prefetchTuple(cand)); ok {
		in.Trend = signals.Sourced[providers.TrendPoint]{Value: entry.Trend, Meta: entry.TrendMeta}
		in.News = signals.Sourced[[]providers.NewsItem]{Value: entry.News, Meta: entry.NewsMeta}
	} else {
		in.Trend = signals.Sourced[providers.TrendPoint]{Meta: providers.Meta{Provider: "trends", Status: providers.StatusNoData}}
		in.News = signals.Sourced[[]providers.NewsItem]{Meta: providers.Meta{Provider: "news", Status: providers.StatusNoData}}
	}

	if cand.PickType == picks.TypeProp {
		// Player log is cached per (player, stat); the shared cache absorbs
		// the per-candidate reads after the first.
		log, meta := e.bundle.Stats.GetPlayerLog(ctx, cand.Sport, cand.Player, cand.StatType)
		in.PlayerLog = signals.Sourced[providers.PlayerLog]{Value: log, Meta: meta}
	}

	in.ExpertShadow = in.ExpertConsensus.Meta.Shadow

	if f, ok := e.teamFormFor(cand.Sport, formTeam(cand)); ok {
		in.WinDates = f.winDates
		in.StreakWins = f.streak
		if !f.lastGame.IsZero() && cand.StartTime.After(f.lastGame) {
			in.RestDays = int(cand.StartTime.Sub(f.lastGame).Hours() / 24)
		}
	}

	in.LSTMAvailable = e.store.ProveArtifact(lstmArtifact(cand.Sport)).Exists
	in.EnsembleAvailable = e.store.ProveArtifact(ensembleArtifact(cand.Sport)).Exists

	in.SeasonTotalAvg = e.seasonAverage(cand.Sport)
	in.SimWinProb, in.SimRuns = simWinProb(cand, gd)
	return in
}

func prefetchTuple(cand picks.Candidate) prefetch.Tuple {
	target := cand.Selection
	if cand.PickType == picks.TypeProp {
		target = cand.Player
	}
	return prefetch.Tuple{Home: cand.HomeTeam, Away: cand.AwayTeam, Target: target}
}

func teamInjuries(all []providers.InjuryReport, cand picks.Candidate) []providers.InjuryReport {
	var out []providers.InjuryReport
	for _, inj := range all {
		if strings.EqualFold(inj.Team, cand.HomeTeam) || strings.EqualFold(inj.Team, cand.AwayTeam) {
			out = append(out, inj)
		}
	}
	return out
}

func marketMatches(splitMarket string, cand picks.Candidate) bool {
	return strings.EqualFold(splitMarket, cand.Market()) ||
		(cand.PickType == picks.TypeSharp && strings.EqualFold(splitMarket, "spread"))
}

func sidesMatch(splitSide string, cand picks.Candidate, game providers.Game) bool {
	s := strings.ToLower(splitSide)
	if s == cand.Side {
		return true
	}
	return strings.EqualFold(splitSide, teamFor(cand.Side, game))
}

// expertConsensus counts selection mentions across the SERP expert headlines.
func expertConsensus(serp providers.SERPResult, meta providers.Meta, cand picks.Candidate) signals.Sourced[float64] {
	out := signals.Sourced[float64]{Meta: meta}
	if !meta.OK() || len(serp.Headlines) == 0 {
		if meta.Status == providers.StatusSuccess {
			out.Meta.Status = providers.StatusNoData
		}
		return out
	}
	sel := strings.ToLower(cand.Selection)
	mentions := 0
	for _, h := range serp.Headlines {
		if strings.Contains(strings.ToLower(h), sel) {
			mentions++
		}
	}
	out.Value = 50 + float64(mentions)*100/float64(2*len(serp.Headlines))
	if out.Value > 100 {
		out.Value = 100
	}
	return out
}

func lstmArtifact(sport string) string {
	return "grader_data/models/lstm_" + strings.ToLower(sport) + ".json"
}

func ensembleArtifact(sport string) string {
	return "grader_data/models/ensemble_" + strings.ToLower(sport) + ".json"
}

// predictFromArtifacts backs the AI engine's model hook. The projection
// centers the neutral baseline on the artifact's graded hit rate; a missing
// or empty artifact leaves the engine on its heuristic path.
func (e *Engine) predictFromArtifacts(in signals.Inputs) (float64, bool) {
	rel := ensembleArtifact(in.Cand.Sport)
	if in.Cand.PickType == picks.TypeProp {
		rel = lstmArtifact(in.Cand.Sport)
	}
	art, ok := e.modelFor(rel)
	if !ok {
		return 0, false
	}
	return contract.NeutralBaseline + (art.HitRate-0.5)*10, true
}

// modelFor returns the cached artifact, reading the store once per path.
// Retrain jobs drop the entry after a rewrite; misses are not cached.
func (e *Engine) modelFor(rel string) (modelArtifact, bool) {
	e.mu.RLock()
	art, ok := e.models[rel]
	e.mu.RUnlock()
	if ok {
		return art, true
	}
	if err := e.store.ReadModelArtifact(rel, &art); err != nil || art.SamplesUsed == 0 {
		return modelArtifact{}, false
	}
	e.mu.Lock()
	e.models[rel] = art
	e.mu.Unlock()
	return art, true
}

func (e *Engine) dropModel(rel string) {
	e.mu.Lock()
	delete(e.models, rel)
	e.mu.Unlock()
}

func (e *Engine) seasonAverage(sport string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seasonAvg[sport]
}

// SetSeasonAverage records the season scoring environment for a sport. The
// season-extremes job is the only writer.
func (e *Engine) SetSeasonAverage(sport string, avg float64) {
	e.mu.Lock()
	e.seasonAvg[sport] = avg
	e.mu.Unlock()
}
