// Package app wires the request pipeline: fetch, pre-fetch, score, select,
// normalize, persist. Data failures never escape as errors; they surface in
// the response's errors and timed-out lists.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/peterostrander2/ai-betting-backend/internal/config"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/prefetch"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
	"github.com/peterostrander2/ai-betting-backend/internal/registry"
	"github.com/peterostrander2/ai-betting-backend/internal/score"
	"github.com/peterostrander2/ai-betting-backend/internal/selection"
	"github.com/peterostrander2/ai-betting-backend/internal/signals"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// Engine is the request-facing decision core.
type Engine struct {
	cfg     config.Config
	bundle  *providers.Bundle
	planner *prefetch.Planner
	store   *persistence.Store
	reg     *registry.Registry
	log     zerolog.Logger

	mu        sync.RWMutex
	seasonAvg map[string]float64             // sport -> season average total
	models    map[string]modelArtifact       // artifact path -> loaded model
	forms     map[string]map[string]teamForm // sport -> team -> rolling form
}

// New assembles the engine from its wired dependencies.
func New(cfg config.Config, bundle *providers.Bundle, store *persistence.Store, reg *registry.Registry, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		bundle:    bundle,
		planner:   prefetch.NewPlanner(bundle, cfg.WorkerPoolSize, logger),
		store:     store,
		reg:       reg,
		log:       logger.With().Str("component", "engine").Logger(),
		seasonAvg: map[string]float64{},
		models:    map[string]modelArtifact{},
		forms:     map[string]map[string]teamForm{},
	}
}

// Store exposes the persistence layer to job wiring.
func (e *Engine) Store() *persistence.Store { return e.store }

// Bundle exposes the provider clients to job wiring.
func (e *Engine) Bundle() *providers.Bundle { return e.bundle }

// fetched is everything the fetch phase gathers once per request.
type fetched struct {
	games    []providers.Game
	gamesMet providers.Meta
	props    []providers.PropOffer
	propsMet providers.Meta
	splits   []providers.SplitRecord
	splitMet providers.Meta
	injuries []providers.InjuryReport
	injMet   providers.Meta

	kp       providers.KpReading
	kpMet    providers.Meta
	flares   []providers.SolarFlare
	flareMet providers.Meta
	moon     providers.MoonInfo
	moonMet  providers.Meta
	quote    providers.QuoteSentiment
	quoteMet providers.Meta

	perGame map[string]*gameData
}

// gameData is the per-event sub-fetch result.
type gameData struct {
	board    providers.OddsBoard
	boardMet providers.Meta
	offs     providers.OfficialsReport
	offsMet  providers.Meta
	weather  providers.WeatherSnapshot
	weathMet providers.Meta

	homePace, awayPace float64
	homeDefRank        int
	awayDefRank        int
	paceMet            providers.Meta

	serp    providers.SERPResult
	serpMet providers.Meta

	lineHistory map[string][]float64 // market -> chronological lines
}

// BestBets runs the full pipeline for one sport and ET day.
func (e *Engine) BestBets(ctx context.Context, sport, dateStr string, debug bool) (Response, error) {
	day, resp, err := e.initRequest(sport, dateStr)
	if err != nil {
		return resp, err
	}

	rt := telemetry.NewRequestTelemetry()
	ctx = telemetry.NewContext(ctx, rt)
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestBudget)
	defer cancel()

	fetchStart := time.Now()
	data := e.fetch(ctx, sport, day)
	rt.RecordPhase("fetch", time.Since(fetchStart))
	resp.collectErrors(data)

	cands := e.candidates(sport, data)

	prefetchStart := time.Now()
	pf := e.runPrefetch(ctx, cands)
	rt.RecordPhase("prefetch", time.Since(prefetchStart))

	scoreStart := time.Now()
	scored := make([]picks.ScoredPick, 0, len(cands))
	for _, cand := range cands {
		scored = append(scored, e.scoreOne(ctx, cand, data, pf))
	}
	rt.RecordPhase("score", time.Since(scoreStart))

	selectStart := time.Now()
	selected := selection.Select(scored, day)
	rt.RecordPhase("select", time.Since(selectStart))

	for _, p := range selected {
		out := picks.Normalize(p)
		if picks.IsGameMarket(p.Candidate.PickType) {
			resp.GamePicks.Picks = append(resp.GamePicks.Picks, out)
		} else {
			resp.Props.Picks = append(resp.Props.Picks, out)
		}
		if err := e.store.AppendPrediction(picks.ToRecord(p, resp.DateET)); err != nil {
			e.log.Error().Err(err).Str("pick_id", p.PickID).Msg("prediction append failed")
			resp.Errors = append(resp.Errors, ErrorEntry{Component: "persistence", Code: "WRITE_FAILED", Detail: err.Error()})
		}
		telemetry.PicksEmitted.WithLabelValues(sport, p.Tier).Inc()
	}
	resp.GamePicks.Count = len(resp.GamePicks.Picks)
	resp.Props.Count = len(resp.Props.Picks)

	stats, timedOut, phases := rt.Snapshot()
	for phase, ms := range phases {
		telemetry.RequestDuration.WithLabelValues(phase).Observe(ms / 1000)
	}
	resp.TimedOutComponents = timedOut
	if debug {
		resp.Debug = buildDebug(stats, timedOut, phases, selected)
	}
	e.log.Info().Str("sport", sport).Str("date_et", resp.DateET).
		Int("games", resp.GamePicks.Count).Int("props", resp.Props.Count).
		Int("timed_out", len(timedOut)).
		Msg("best bets complete")
	return resp, nil
}

func (e *Engine) initRequest(sport, dateStr string) (time.Time, Response, error) {
	var day time.Time
	var err error
	if dateStr == "" {
		day = timeauth.NowET()
	} else {
		day, err = timeauth.ParseETDate(dateStr)
		if err != nil {
			return day, Response{}, err
		}
	}
	resp := Response{
		Sport:          sport,
		DateET:         timeauth.FormatETDate(day),
		RunTimestampET: timeauth.FormatETTimestamp(timeauth.NowET()),
		Errors:         []ErrorEntry{},
		GamePicks:      PickGroup{Picks: []picks.ScoredPickOut{}},
		Props:          PickGroup{Picks: []picks.ScoredPickOut{}},
	}
	return day, resp, nil
}

// fetch runs the unordered provider fan-out, then the bounded per-game
// sub-fetch. Every call is fail-soft; a dead provider just shows up in its
// Meta.
func (e *Engine) fetch(ctx context.Context, sport string, day time.Time) *fetched {
	data := &fetched{perGame: map[string]*gameData{}}

	var g errgroup.Group
	g.Go(func() error {
		data.games, data.gamesMet = e.bundle.Odds.GetScoreboard(ctx, sport, day)
		return nil
	})
	g.Go(func() error {
		data.props, data.propsMet = e.bundle.Odds.GetProps(ctx, sport, day)
		return nil
	})
	g.Go(func() error {
		data.splits, data.splitMet = e.bundle.Playbook.GetSplits(ctx, sport, day)
		return nil
	})
	g.Go(func() error {
		data.injuries, data.injMet = e.bundle.Playbook.GetInjuries(ctx, sport)
		return nil
	})
	g.Go(func() error {
		data.kp, data.kpMet = e.bundle.Space.GetKpIndex(ctx)
		return nil
	})
	g.Go(func() error {
		data.flares, data.flareMet = e.bundle.Space.GetSolarFlares(ctx)
		return nil
	})
	g.Go(func() error {
		data.moon, data.moonMet = e.bundle.Astro.GetMoonPhase(ctx, day)
		return nil
	})
	g.Go(func() error {
		data.quote, data.quoteMet = e.bundle.Finance.GetQuote(ctx, "SPY")
		return nil
	})
	_ = g.Wait()

	var sub errgroup.Group
	sub.SetLimit(e.cfg.WorkerPoolSize)
	var mu sync.Mutex
	for _, game := range data.games {
		game := game
		sub.Go(func() error {
			gd := e.fetchGame(ctx, sport, game)
			mu.Lock()
			data.perGame[game.EventID] = gd
			mu.Unlock()
			return nil
		})
	}
	_ = sub.Wait()
	return data
}

func (e *Engine) fetchGame(ctx context.Context, sport string, game providers.Game) *gameData {
	gd := &gameData{lineHistory: map[string][]float64{}}
	var g errgroup.Group
	g.Go(func() error {
		gd.board, gd.boardMet = e.bundle.Odds.GetBoard(ctx, sport, game.EventID)
		return nil
	})
	g.Go(func() error {
		gd.offs, gd.offsMet = e.bundle.Odds.GetEventOfficials(ctx, sport, game.EventID)
		return nil
	})
	g.Go(func() error {
		gd.weather, gd.weathMet = e.bundle.Weather.GetGameWeather(ctx, sport, game.Latitude, game.Longitude, game.StartTime)
		return nil
	})
	g.Go(func() error {
		gd.homePace, gd.homeDefRank, gd.paceMet = e.bundle.Stats.GetTeamPace(ctx, sport, game.HomeTeam)
		gd.awayPace, gd.awayDefRank, _ = e.bundle.Stats.GetTeamPace(ctx, sport, game.AwayTeam)
		return nil
	})
	g.Go(func() error {
		gd.serp, gd.serpMet = e.bundle.SERP.GetSERP(ctx, game.AwayTeam+" "+game.HomeTeam+" betting")
		return nil
	})
	g.Go(func() error {
		snaps, err := e.store.LoadLineHistory(game.EventID)
		if err != nil {
			return nil
		}
		for _, s := range snaps {
			gd.lineHistory[s.Market] = append(gd.lineHistory[s.Market], s.Line)
		}
		return nil
	})
	_ = g.Wait()
	return gd
}

func (e *Engine) runPrefetch(ctx context.Context, cands []picks.Candidate) *prefetch.Cache {
	tuples := make([]prefetch.Tuple, 0, len(cands))
	for _, c := range cands {
		target := c.Selection
		if c.PickType == picks.TypeProp {
			target = c.Player
		}
		tuples = append(tuples, prefetch.Tuple{Home: c.HomeTeam, Away: c.AwayTeam, Target: target})
	}
	budget := time.Duration(float64(e.cfg.RequestBudget) * e.cfg.PrefetchShare)
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining/2 < budget {
			budget = remaining / 2
		}
	}
	return e.planner.Run(ctx, prefetch.Dedupe(tuples), budget)
}

// scoreOne assembles inputs and runs the full scoring stack for a candidate.
func (e *Engine) scoreOne(ctx context.Context, cand picks.Candidate, data *fetched, pf *prefetch.Cache) picks.ScoredPick {
	in := e.assembleInputs(ctx, cand, data, pf)

	ai := signals.AIEngine{Predict: e.predictFromArtifacts}.Score(in)
	research := signals.ResearchEngine{}.Score(in)
	esoteric := signals.EsotericEngine{}.Score(in)
	jarvis := signals.JarvisEngine{}.Score(in)
	cmod := signals.ContextModifier(in)
	boosts := signals.ComputeBoosts(in, ai, research.EngineResult, esoteric, jarvis)

	breakdown := score.Aggregate(score.Inputs{
		AI:                ai.Score,
		Research:          research.Score,
		Esoteric:          esoteric.Score,
		Jarvis:            jarvis.Score,
		ContextModifier:   cmod.Modifier,
		Confluence:        boosts.Confluence,
		JasonSim:          boosts.JasonSim,
		SERPTotal:         boosts.SERPTotal,
		EnsembleAdj:       boosts.EnsembleAdj,
		LiveAdj:           boosts.LiveAdj,
		TotalsCalibration: boosts.TotalsCalibration,
		HookPenalty:       boosts.HookPenalty,
		ExpertConsensus:   boosts.ExpertConsensus,
		PropCorrelation:   boosts.PropCorrelation,
	})
	if err := breakdown.Validate(); err != nil {
		e.log.Error().Err(err).Str("event", cand.EventID).Msg("score reconciliation failed")
	}

	p := picks.ScoredPick{
		PickID:    uuid.NewString(),
		Candidate: cand,

		AIScore:       breakdown.AI,
		ResearchScore: breakdown.Research,
		EsotericScore: breakdown.Esoteric,
		JarvisScore:   breakdown.Jarvis,
		Base4:         breakdown.Base4,

		ContextModifier: breakdown.ContextModifier,

		ConfluenceBoost:    breakdown.Confluence,
		MSRFBoost:          breakdown.MSRFExternal,
		JasonSimBoost:      breakdown.JasonSim,
		SERPBoost:          breakdown.SERPTotal,
		EnsembleAdjustment: breakdown.EnsembleAdj,
		LiveAdjustment:     breakdown.LiveAdj,
		HookPenalty:        breakdown.HookPenalty,
		ExpertConsensus:    breakdown.ExpertConsensus,
		PropCorrelation:    breakdown.PropCorrelation,
		TotalsCalibration:  breakdown.TotalsCalibration,

		TotalScore:     breakdown.Total,
		FinalScore:     breakdown.Final,
		ReconcileDelta: breakdown.ReconcileDelta,

		AIReasons:       ai.Reasons,
		ResearchReasons: research.Reasons,
		EsotericReasons: esoteric.Reasons,
		JarvisReasons:   jarvis.Reasons,

		Signals:   map[string]picks.Contribution{},
		CreatedAt: time.Now().UTC(),
	}

	merge := func(prefix string, m map[string]picks.Contribution) {
		for name, c := range m {
			p.Signals[prefix+name] = c
		}
	}
	merge("ai_", ai.Contributions)
	merge("research_", research.Contributions)
	merge("esoteric_", esoteric.Contributions)
	merge("jarvis_", jarvis.Contributions)
	merge("", cmod.Contributions)
	merge("boost_", boosts.Contributions)

	seen := map[string]bool{}
	for _, c := range p.Signals {
		api := c.Provenance.SourceAPI
		if api != "" && !seen[api] {
			seen[api] = true
			p.IntegrationsUsed = append(p.IntegrationsUsed, api)
		}
	}
	return p
}
