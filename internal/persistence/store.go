// Package persistence is the JSONL store on the mounted volume. Predictions
// are append-only with outcome rows joined at read time; weights live on a
// separate path with coarse daily rewrites and the two are never merged.
package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

const (
	predictionsFile = "predictions/predictions.jsonl"
	teamResultsFile = "grader_data/team_results.jsonl"
	weightsFile     = "grader_data/weights.json"
	auditDir        = "grader_data/audit_logs"
	lessonsFile     = "grader_data/audit_logs/lessons.jsonl"
	trapsFile       = "trap_learning/traps.jsonl"
	trapEvalsFile   = "trap_learning/evaluations.jsonl"
	trapAdjustsFile = "trap_learning/adjustments.jsonl"
	lineHistoryDir  = "line_history"
	telemetryDir    = "telemetry"
	heartbeatDir    = "scheduler"

	maxLineBytes = 1 << 20
)

// Store owns every file under the volume mount. All appends go through one
// mutex so concurrent request handlers and scheduler jobs never interleave
// partial lines.
type Store struct {
	root string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewStore resolves and verifies the volume mount. A root that escapes the
// configured mount, or one that cannot be created, is a startup failure.
func NewStore(volumeMount string, logger zerolog.Logger) (*Store, error) {
	if volumeMount == "" {
		return nil, fmt.Errorf("persistence: volume mount not configured")
	}
	root, err := filepath.Abs(volumeMount)
	if err != nil {
		return nil, fmt.Errorf("persistence: resolve mount: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: create mount root: %w", err)
	}
	s := &Store{root: root, log: logger.With().Str("component", "persistence").Logger()}
	for _, dir := range []string{"predictions", "grader_data", "grader_data/models", auditDir, "trap_learning", lineHistoryDir, telemetryDir, heartbeatDir} {
		p, err := s.resolve(dir)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, fmt.Errorf("persistence: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// Root returns the resolved mount root.
func (s *Store) Root() string { return s.root }

// resolve joins rel under the root and rejects any path that escapes it.
func (s *Store) resolve(rel string) (string, error) {
	p := filepath.Join(s.root, rel)
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("persistence: path %q escapes volume mount %q", rel, s.root)
	}
	return p, nil
}

// appendLine writes one JSON document plus newline under the append lock.
func (s *Store) appendLine(rel string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persistence: marshal for %s: %w", rel, err)
	}
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: open %s: %w", rel, err)
	}
	defer f.Close()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("persistence: append %s: %w", rel, err)
	}
	return nil
}

// readLines streams each non-empty line of rel to fn. Lines that fail to
// decode are skipped and counted, never fatal: the log is a mixed-schema file.
func (s *Store) readLines(rel string, fn func(raw []byte)) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("persistence: open %s: %w", rel, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fn([]byte(line))
	}
	return sc.Err()
}

// AppendPrediction writes one pick row at response-emit time.
func (s *Store) AppendPrediction(rec picks.PredictionRecord) error {
	return s.appendLine(predictionsFile, rec)
}

// AppendOutcome writes a grading row; the pair is joined at read time.
func (s *Store) AppendOutcome(rec picks.OutcomeRecord) error {
	return s.appendLine(predictionsFile, rec)
}

// GradedPrediction is the read-time join of a prediction with its outcome.
type GradedPrediction struct {
	Prediction picks.PredictionRecord
	Outcome    *picks.OutcomeRecord
}

// LoadPredictions replays the log and joins outcomes onto predictions by
// pick id. Unrecognized rows are skipped. When dateET is non-empty only that
// ET day's predictions are returned.
func (s *Store) LoadPredictions(dateET string) ([]GradedPrediction, error) {
	byID := make(map[string]*GradedPrediction)
	var order []string
	skipped := 0
	err := s.readLines(predictionsFile, func(raw []byte) {
		var probe struct {
			PickID  string `json:"pick_id"`
			Outcome string `json:"outcome"`
			DateET  string `json:"date_et"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.PickID == "" {
			skipped++
			return
		}
		if probe.Outcome != "" {
			var out picks.OutcomeRecord
			if err := json.Unmarshal(raw, &out); err != nil {
				skipped++
				return
			}
			if gp, ok := byID[out.PickID]; ok {
				gp.Outcome = &out
			}
			return
		}
		var pred picks.PredictionRecord
		if err := json.Unmarshal(raw, &pred); err != nil {
			skipped++
			return
		}
		if dateET != "" && pred.DateET != dateET {
			return
		}
		if _, ok := byID[pred.PickID]; !ok {
			order = append(order, pred.PickID)
		}
		byID[pred.PickID] = &GradedPrediction{Prediction: pred}
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warn().Int("skipped_rows", skipped).Msg("prediction log contained unrecognized rows")
	}
	out := make([]GradedPrediction, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// HasOutcomesForDay reports whether any prediction for the ET day already
// carries an outcome. Grading jobs use it for idempotence.
func (s *Store) HasOutcomesForDay(dateET string) (bool, error) {
	rows, err := s.LoadPredictions(dateET)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r.Outcome != nil {
			return true, nil
		}
	}
	return false, nil
}

// TeamResult is one team's side of a final game, appended by the grading job
// so form signals have win history without re-reading scoreboards.
type TeamResult struct {
	Sport    string    `json:"sport"`
	Team     string    `json:"team"`
	Opponent string    `json:"opponent"`
	DateET   string    `json:"date_et"`
	GameTime time.Time `json:"game_time"`
	Won      bool      `json:"won"`
	Scored   float64   `json:"scored"`
	Allowed  float64   `json:"allowed"`
}

// AppendTeamResults writes one row per team side.
func (s *Store) AppendTeamResults(rows []TeamResult) error {
	for _, r := range rows {
		if err := s.appendLine(teamResultsFile, r); err != nil {
			return err
		}
	}
	return nil
}

// LoadTeamResults replays the team-result log for one sport in append order.
// Re-graded days produce duplicate rows; the first one wins.
func (s *Store) LoadTeamResults(sport string) ([]TeamResult, error) {
	var out []TeamResult
	seen := map[string]bool{}
	err := s.readLines(teamResultsFile, func(raw []byte) {
		var r TeamResult
		if json.Unmarshal(raw, &r) != nil || !strings.EqualFold(r.Sport, sport) {
			return
		}
		key := strings.ToUpper(r.Sport) + "|" + strings.ToLower(r.Team) + "|" + r.DateET + "|" + strings.ToLower(r.Opponent)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WeightsDoc is the daily-rewritten weights file. Engine weights are locked
// in the contract; this holds the learned per-signal multipliers, keyed by
// WeightKey so the same signal can drift differently per sport and market.
type WeightsDoc struct {
	SchemaVersion int                           `json:"schema_version"`
	UpdatedAtET   string                        `json:"updated_at_et"`
	Signals       map[string]map[string]float64 `json:"signals"` // WeightKey -> signal -> multiplier
}

// WeightKey builds the outer weights-map key. Market is the stat type for
// props and the lowercase market name for game picks.
func WeightKey(sport, market string) string {
	return strings.ToUpper(sport) + "|" + strings.ToLower(market)
}

// LoadWeights returns the current weights, or an empty doc when none exist.
func (s *Store) LoadWeights() (WeightsDoc, error) {
	var doc WeightsDoc
	p, err := s.resolve(weightsFile)
	if err != nil {
		return doc, err
	}
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return WeightsDoc{SchemaVersion: 1, Signals: map[string]map[string]float64{}}, nil
	}
	if err != nil {
		return doc, fmt.Errorf("persistence: read weights: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("persistence: decode weights: %w", err)
	}
	if doc.Signals == nil {
		doc.Signals = map[string]map[string]float64{}
	}
	return doc, nil
}

// SaveWeights rewrites the weights file atomically. Only scheduler jobs call
// this; request handlers never touch weights.
func (s *Store) SaveWeights(doc WeightsDoc) error {
	doc.UpdatedAtET = timeauth.FormatETTimestamp(timeauth.NowET())
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal weights: %w", err)
	}
	p, err := s.resolve(weightsFile)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("persistence: write weights tmp: %w", err)
	}
	return os.Rename(tmp, p)
}

// AppendTrap registers a trap definition row.
func (s *Store) AppendTrap(v interface{}) error { return s.appendLine(trapsFile, v) }

// AppendTrapEvaluation records one trap evaluation, fired or not.
func (s *Store) AppendTrapEvaluation(v interface{}) error { return s.appendLine(trapEvalsFile, v) }

// AppendTrapAdjustment records an applied WEIGHT_ADJUST.
func (s *Store) AppendTrapAdjustment(v interface{}) error { return s.appendLine(trapAdjustsFile, v) }

// ReadTrapLines streams the named trap file ("traps", "evaluations",
// "adjustments") to fn.
func (s *Store) ReadTrapLines(kind string, fn func(raw []byte)) error {
	switch kind {
	case "traps":
		return s.readLines(trapsFile, fn)
	case "evaluations":
		return s.readLines(trapEvalsFile, fn)
	case "adjustments":
		return s.readLines(trapAdjustsFile, fn)
	}
	return fmt.Errorf("persistence: unknown trap file %q", kind)
}

// WriteAudit writes the daily audit document for the ET day.
func (s *Store) WriteAudit(dateET string, v interface{}) error {
	return s.writeDatedJSON(filepath.Join(auditDir, "audit_"+dateET+".json"), v)
}

// WriteLesson writes the daily lesson document and appends the rolling line.
func (s *Store) WriteLesson(dateET string, v interface{}) error {
	if err := s.writeDatedJSON(filepath.Join(auditDir, "lesson_"+dateET+".json"), v); err != nil {
		return err
	}
	return s.appendLine(lessonsFile, v)
}

func (s *Store) writeDatedJSON(rel string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal %s: %w", rel, err)
	}
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(p, raw, 0o644)
}

// LineSnapshot is one compact line-history row for Hurst and Benford inputs.
type LineSnapshot struct {
	EventID    string    `json:"event_id"`
	Sport      string    `json:"sport"`
	Market     string    `json:"market"`
	Book       string    `json:"book"`
	Line       float64   `json:"line"`
	CapturedAt time.Time `json:"captured_at"`
}

// AppendLineSnapshots writes snapshot rows into the event's history file.
func (s *Store) AppendLineSnapshots(snaps []LineSnapshot) error {
	for _, snap := range snaps {
		rel := filepath.Join(lineHistoryDir, sanitizeFileToken(snap.EventID)+".jsonl")
		if err := s.appendLine(rel, snap); err != nil {
			return err
		}
	}
	return nil
}

// LoadLineHistory returns all snapshots captured for one event, in append
// order.
func (s *Store) LoadLineHistory(eventID string) ([]LineSnapshot, error) {
	var out []LineSnapshot
	rel := filepath.Join(lineHistoryDir, sanitizeFileToken(eventID)+".jsonl")
	err := s.readLines(rel, func(raw []byte) {
		var snap LineSnapshot
		if json.Unmarshal(raw, &snap) == nil {
			out = append(out, snap)
		}
	})
	return out, err
}

// WriteTelemetrySnapshot stores the daily request-telemetry rollup.
func (s *Store) WriteTelemetrySnapshot(dateET string, v interface{}) error {
	return s.writeDatedJSON(filepath.Join(telemetryDir, "daily_"+dateET+".json"), v)
}

// Heartbeat is the scheduler job liveness artifact.
type Heartbeat struct {
	JobID  string    `json:"job_id"`
	RanAt  time.Time `json:"ran_at"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

// WriteHeartbeat records a job run.
func (s *Store) WriteHeartbeat(hb Heartbeat) error {
	return s.writeDatedJSON(filepath.Join(heartbeatDir, "heartbeat_"+sanitizeFileToken(hb.JobID)+".json"), hb)
}

// ReadHeartbeat loads a job's last heartbeat, nil when never written.
func (s *Store) ReadHeartbeat(jobID string) (*Heartbeat, error) {
	p, err := s.resolve(filepath.Join(heartbeatDir, "heartbeat_"+sanitizeFileToken(jobID)+".json"))
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hb Heartbeat
	if err := json.Unmarshal(raw, &hb); err != nil {
		return nil, err
	}
	return &hb, nil
}

// WriteModelArtifact stores a training output under its store-relative path.
func (s *Store) WriteModelArtifact(rel string, v interface{}) error {
	return s.writeDatedJSON(rel, v)
}

// ReadModelArtifact loads a training output written by WriteModelArtifact.
func (s *Store) ReadModelArtifact(rel string, v interface{}) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ArtifactProof describes a file for the training-status payload.
type ArtifactProof struct {
	Exists   bool   `json:"exists"`
	Size     int64  `json:"size"`
	MtimeISO string `json:"mtime_iso,omitempty"`
}

// ProveArtifact stats a store-relative path.
func (s *Store) ProveArtifact(rel string) ArtifactProof {
	p, err := s.resolve(rel)
	if err != nil {
		return ArtifactProof{}
	}
	fi, err := os.Stat(p)
	if err != nil {
		return ArtifactProof{}
	}
	return ArtifactProof{Exists: true, Size: fi.Size(), MtimeISO: fi.ModTime().UTC().Format(time.RFC3339)}
}

// WeightsPath, PredictionsPath expose the canonical relative paths for
// artifact proofs.
func WeightsPath() string     { return weightsFile }
func PredictionsPath() string { return predictionsFile }

func sanitizeFileToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
