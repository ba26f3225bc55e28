// Package scheduler runs the recurring jobs on an America/New_York cron
// clock. Every job writes a heartbeat artifact; health turns STALE when the
// artifact ages past 24h while graded picks exist.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// Job ids are stable API surface; the status endpoint exposes them.
const (
	JobGradeDaily       = "grade-daily"
	JobTrapEval         = "trap-eval"
	JobAuditLesson      = "audit-lesson"
	JobLineSnapshot     = "line-snapshot"
	JobSeasonExtremes   = "season-extremes"
	JobTeamModelRetrain = "team-model-retrain"
	JobLSTMRetrain      = "lstm-retrain"
	JobCacheWarm        = "cache-warm"
)

// JobFunc is one idempotent job body.
type JobFunc func() error

type job struct {
	id      string
	name    string
	trigger string
	fn      JobFunc
	entryID cron.EntryID
}

// Scheduler wraps robfig/cron pinned to the ET zone.
type Scheduler struct {
	cron  *cron.Cron
	store *persistence.Store
	log   zerolog.Logger

	mu      sync.Mutex
	jobs    []*job
	running bool
}

// New builds an ET-anchored scheduler. Jobs are registered separately so the
// wiring layer controls which bodies run.
func New(store *persistence.Store, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(timeauth.ETLocation())),
		store: store,
		log:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a job under a stable id and cron trigger.
func (s *Scheduler) Register(id, name, trigger string, fn JobFunc) error {
	j := &job{id: id, name: name, trigger: trigger, fn: fn}
	entryID, err := s.cron.AddFunc(trigger, func() { s.run(j) })
	if err != nil {
		return err
	}
	j.entryID = entryID
	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run(j *job) {
	start := time.Now()
	hb := persistence.Heartbeat{JobID: j.id, RanAt: start.UTC(), Status: "OK"}
	if err := j.fn(); err != nil {
		hb.Status = "ERROR"
		hb.Detail = err.Error()
		s.log.Error().Err(err).Str("job", j.id).Msg("job failed")
	} else {
		s.log.Info().Str("job", j.id).Dur("took", time.Since(start)).Msg("job complete")
	}
	if err := s.store.WriteHeartbeat(hb); err != nil {
		s.log.Error().Err(err).Str("job", j.id).Msg("heartbeat write failed")
	}
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop halts the loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// JobStatus is one entry of the status payload.
type JobStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Trigger       string `json:"trigger"`
	NextRunTimeET string `json:"next_run_time_et"`
}

// Status is the introspection payload for the status endpoint.
type Status struct {
	Jobs                  []JobStatus `json:"jobs"`
	SchedulerRunning      bool        `json:"scheduler_running"`
	TrainingJobRegistered bool        `json:"training_job_registered"`
}

// Snapshot renders the current registry.
func (s *Scheduler) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{SchedulerRunning: s.running, Jobs: make([]JobStatus, 0, len(s.jobs))}
	for _, j := range s.jobs {
		next := ""
		if e := s.cron.Entry(j.entryID); !e.Next.IsZero() {
			next = timeauth.FormatETTimestamp(e.Next)
		}
		st.Jobs = append(st.Jobs, JobStatus{ID: j.id, Name: j.name, Trigger: j.trigger, NextRunTimeET: next})
		if j.id == JobTeamModelRetrain || j.id == JobLSTMRetrain {
			st.TrainingJobRegistered = true
		}
	}
	return st
}

// Health classifies a job from its heartbeat: OK, STALE past 24h with graded
// picks on file, or NEVER_RAN.
func (s *Scheduler) Health(jobID string, gradedPicksExist bool, now time.Time) string {
	hb, err := s.store.ReadHeartbeat(jobID)
	if err != nil || hb == nil {
		return "NEVER_RAN"
	}
	if gradedPicksExist && now.Sub(hb.RanAt) > 24*time.Hour {
		return "STALE"
	}
	if hb.Status == "ERROR" {
		return "ERROR"
	}
	return "OK"
}
