// Command bettingengine runs the betting decision engine: an HTTP server
// with the scheduler, a one-shot scan, or standalone health checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/peterostrander2/ai-betting-backend/internal/app"
	"github.com/peterostrander2/ai-betting-backend/internal/config"
	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/datasources"
	"github.com/peterostrander2/ai-betting-backend/internal/httpapi"
	"github.com/peterostrander2/ai-betting-backend/internal/learning"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
	"github.com/peterostrander2/ai-betting-backend/internal/registry"
	"github.com/peterostrander2/ai-betting-backend/internal/scheduler"
	"github.com/peterostrander2/ai-betting-backend/internal/secrets"
	"github.com/peterostrander2/ai-betting-backend/internal/telemetry"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

var defaultSports = []string{"NBA", "NFL", "MLB", "NHL", "NCAAB", "NCAAF", "WNBA"}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:   "bettingengine",
		Short: "Sports betting decision engine",
		Long:  "Scores the day's board across four engines and serves the best bets.",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// stack is the fully wired dependency graph.
type stack struct {
	cfg    config.Config
	engine *app.Engine
	sched  *scheduler.Scheduler
	reg    *registry.Registry
	store  *persistence.Store
	san    *secrets.Sanitizer
	grader *learning.Grader
	traps  *learning.TrapEngine
}

func buildStack() (*stack, error) {
	if err := contract.ValidateContract(); err != nil {
		return nil, fmt.Errorf("contract validation: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sanitizer := secrets.NewSanitizer()
	log.Logger = log.Output(secrets.Writer{S: sanitizer, Sink: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}})

	store, err := persistence.NewStore(cfg.VolumeMount, log.Logger)
	if err != nil {
		return nil, err
	}

	cache := datasources.NewCache()
	for route, minutes := range cfg.Tunables.CacheTTLMinutes {
		cache.SetTTL(route, time.Duration(minutes)*time.Minute)
	}
	quotas := datasources.NewQuotaAccountant()
	for provider, daily := range cfg.Tunables.QuotaDaily {
		quotas.SetLimits(provider, datasources.QuotaLimits{Daily: int64(daily), Monthly: int64(cfg.Tunables.QuotaMonthly[provider])})
	}

	lastUsed := telemetry.NewLastUsedTracker()
	deps := providers.Deps{
		Cache:     cache,
		Quotas:    quotas,
		Guards:    datasources.NewGuards(),
		LastUsed:  lastUsed,
		Sanitizer: sanitizer,
		Logger:    log.Logger,
		HTTP:      &http.Client{},
	}
	bundle := providers.NewBundle(deps, cfg.Endpoints)
	clients := map[string]interface {
		SetTimeout(time.Duration)
		SetShadow(bool)
	}{
		"odds": bundle.Odds, "playbook": bundle.Playbook, "statsapi": bundle.Stats,
		"weather": bundle.Weather, "trends": bundle.Trends, "serp": bundle.SERP,
		"news": bundle.News, "finance": bundle.Finance,
		"spaceweather": bundle.Space, "astro": bundle.Astro,
	}
	for provider, ms := range cfg.Tunables.ProviderTimeout {
		if c, ok := clients[provider]; ok {
			c.SetTimeout(time.Duration(ms) * time.Millisecond)
		}
	}
	for _, provider := range cfg.ShadowProviders {
		if c, ok := clients[provider]; ok {
			c.SetShadow(true)
		}
	}

	reg := registry.New(lastUsed)
	attachProbes(reg, bundle)
	engine := app.New(cfg, bundle, store, reg, log.Logger)

	traps, err := learning.NewTrapEngine(store, log.Logger)
	if err != nil {
		return nil, err
	}
	grader := learning.NewGrader(store, traps, log.Logger)

	sched := scheduler.New(store, log.Logger)
	if err := app.RegisterJobs(sched, engine, grader, traps, defaultSports, log.Logger); err != nil {
		return nil, err
	}
	return &stack{cfg: cfg, engine: engine, sched: sched, reg: reg, store: store, san: sanitizer, grader: grader, traps: traps}, nil
}

// attachProbes gives the registry one cheap liveness call per integration.
// Probes reuse the guarded clients, so cache hits and quota accounting apply.
func attachProbes(reg *registry.Registry, bundle *providers.Bundle) {
	probe := func(fn func(ctx context.Context) providers.Meta) registry.ProbeFunc {
		return func(ctx context.Context) error {
			meta := fn(ctx)
			if meta.OK() || meta.Status == providers.StatusNoData {
				return nil
			}
			return fmt.Errorf("%s: %s", meta.Status, meta.Detail)
		}
	}
	now := timeauth.NowET()
	reg.SetProbe("odds", probe(func(ctx context.Context) providers.Meta {
		_, m := bundle.Odds.GetScoreboard(ctx, "NBA", now)
		return m
	}))
	reg.SetProbe("playbook", probe(func(ctx context.Context) providers.Meta {
		_, m := bundle.Playbook.GetInjuries(ctx, "NBA")
		return m
	}))
	reg.SetProbe("statsapi", probe(func(ctx context.Context) providers.Meta {
		_, _, m := bundle.Stats.GetTeamPace(ctx, "NBA", "Knicks")
		return m
	}))
	reg.SetProbe("spaceweather", probe(func(ctx context.Context) providers.Meta {
		_, m := bundle.Space.GetKpIndex(ctx)
		return m
	}))
	reg.SetProbe("astro", probe(func(ctx context.Context) providers.Meta {
		_, m := bundle.Astro.GetMoonPhase(ctx, now)
		return m
	}))
	reg.SetProbe("finance", probe(func(ctx context.Context) providers.Meta {
		_, m := bundle.Finance.GetQuote(ctx, "SPY")
		return m
	}))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStack()
			if err != nil {
				return err
			}
			st.sched.Start()
			defer st.sched.Stop()

			srv := &http.Server{
				Addr:              ":" + st.cfg.Port,
				Handler:           httpapi.New(st.cfg, st.engine, st.sched, st.reg, st.store, st.san, defaultSports, log.Logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info().Str("port", st.cfg.Port).Msg("server listening")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-stop:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func scanCmd() *cobra.Command {
	var date string
	var debug bool
	cmd := &cobra.Command{
		Use:   "scan [sport]",
		Short: "Run one best-bets pass and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStack()
			if err != nil {
				return err
			}
			resp, err := st.engine.BestBets(cmd.Context(), strings.ToUpper(args[0]), date, debug)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "ET date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&debug, "debug", false, "include the debug payload")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe every integration and print the classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStack()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st.reg.ClassifyAll(ctx))
		},
	}
}
