// Package httpapi is the HTTP surface. Handlers return the normalized
// response shapes and never convert data failures into 5xx.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/app"
	"github.com/peterostrander2/ai-betting-backend/internal/config"
	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/registry"
	"github.com/peterostrander2/ai-betting-backend/internal/scheduler"
	"github.com/peterostrander2/ai-betting-backend/internal/secrets"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// Server holds the handler dependencies.
type Server struct {
	cfg    config.Config
	engine *app.Engine
	sched  *scheduler.Scheduler
	reg    *registry.Registry
	store  *persistence.Store
	san    *secrets.Sanitizer
	sports []string
	log    zerolog.Logger
}

// New builds the server.
func New(cfg config.Config, engine *app.Engine, sched *scheduler.Scheduler, reg *registry.Registry, store *persistence.Store, san *secrets.Sanitizer, sports []string, logger zerolog.Logger) *Server {
	return &Server{
		cfg: cfg, engine: engine, sched: sched, reg: reg, store: store,
		san:    san,
		sports: sports,
		log:    logger.With().Str("component", "httpapi").Logger(),
	}
}

// Router wires the routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/best-bets/{sport}", s.handleBestBets).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/integrations", s.handleIntegrations).Methods(http.MethodGet)
	r.HandleFunc("/scheduler/status", s.handleSchedulerStatus).Methods(http.MethodGet)
	r.HandleFunc("/debug/training-status", s.handleTrainingStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(s.requestLog)
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request served")
	})
}

func (s *Server) handleBestBets(w http.ResponseWriter, r *http.Request) {
	sport := strings.ToUpper(mux.Vars(r)["sport"])
	date := r.URL.Query().Get("date")
	debug := r.URL.Query().Get("debug") == "1"

	// Demo output needs both the environment flag and the request flag.
	if r.URL.Query().Get("demo") == "1" {
		if !s.cfg.DemoMode {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "demo mode not enabled"})
			return
		}
		writeJSON(w, http.StatusOK, demoResponse(sport))
		return
	}

	resp, err := s.engine.BestBets(r.Context(), sport, date, debug)
	if err != nil {
		// Only request-shape problems (bad date) reach here; data failures
		// ride inside the response.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if debug {
		// Debug payloads carry raw provider inputs, so they go out scrubbed.
		s.writeDebugJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healths := s.reg.ClassifyAll(r.Context())
	ok := true
	var reasons []string
	for _, h := range healths {
		if h.Required && h.Status != registry.StatusValidated && h.Status != registry.StatusConfigured {
			ok = false
			reasons = append(reasons, h.Name+": "+string(h.Status))
		}
	}
	status := http.StatusOK
	body := map[string]interface{}{
		"status":         "ok",
		"timestamp_et":   timeauth.FormatETTimestamp(timeauth.NowET()),
		"clock_degraded": timeauth.Degraded(),
	}
	if !ok {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["reasons"] = reasons
	}
	writeJSON(w, status, body)
}

func (s *Server) handleIntegrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"integrations": s.reg.ClassifyAll(r.Context()),
		"env_drift":    s.reg.EnvDrift(environ()),
	})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Snapshot())
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, _ *http.Request) {
	preds, err := s.store.LoadPredictions("")
	gradedSeen, used := 0, 0
	if err == nil {
		for _, p := range preds {
			if p.Outcome != nil {
				gradedSeen++
				if p.Outcome.Outcome != "PUSH" {
					used++
				}
			}
		}
	}
	proofs := map[string]persistence.ArtifactProof{
		persistence.WeightsPath():     s.store.ProveArtifact(persistence.WeightsPath()),
		persistence.PredictionsPath(): s.store.ProveArtifact(persistence.PredictionsPath()),
	}
	for _, sport := range s.sports {
		rel := "grader_data/models/ensemble_" + strings.ToLower(sport) + ".json"
		proofs[rel] = s.store.ProveArtifact(rel)
	}

	health := s.sched.Health(scheduler.JobTeamModelRetrain, gradedSeen > 0, time.Now())
	lastRun := ""
	if hb, hbErr := s.store.ReadHeartbeat(scheduler.JobTeamModelRetrain); hbErr == nil && hb != nil {
		lastRun = hb.RanAt.Format(time.RFC3339)
	}
	s.writeDebugJSON(w, http.StatusOK, map[string]interface{}{
		"training_health":           health,
		"last_train_run_at":         lastRun,
		"graded_samples_seen":       gradedSeen,
		"samples_used_for_training": used,
		"artifact_proof":            proofs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDebugJSON is writeJSON with the secret scrub pass applied to the
// encoded body. Every debug surface goes through here.
func (s *Server) writeDebugJSON(w http.ResponseWriter, status int, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode failed"})
		return
	}
	if s.san != nil {
		raw = s.san.ScrubJSON(raw)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
	_, _ = w.Write([]byte("\n"))
}
