package providers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// PlaybookClient wraps the betting-splits provider. It is the only source
// the sharp-money signal may read from.
type PlaybookClient struct {
	base
}

// NewPlaybookClient builds the playbook client.
func NewPlaybookClient(deps Deps, baseURL, apiKey string) *PlaybookClient {
	return &PlaybookClient{base: newBase(deps, "playbook", baseURL, apiKey)}
}

// GetSplits returns ticket/money splits for a sport and day.
func (c *PlaybookClient) GetSplits(ctx context.Context, sport string, day time.Time) ([]SplitRecord, Meta) {
	var wire []struct {
		EventID   string  `json:"event_id"`
		Market    string  `json:"market"`
		Side      string  `json:"side"`
		TicketPct float64 `json:"ticket_pct"`
		MoneyPct  float64 `json:"money_pct"`
	}
	meta := c.fetchJSON(ctx, "splits", "/v1/splits/"+strings.ToLower(sport), map[string]string{
		"sport": sport,
		"date":  timeauth.FormatETDate(day),
	}, &wire)
	if !meta.OK() {
		return nil, meta
	}
	splits := make([]SplitRecord, 0, len(wire))
	for _, w := range wire {
		splits = append(splits, SplitRecord{
			EventID:   w.EventID,
			Market:    normalizeMarket(w.Market),
			Side:      w.Side,
			TicketPct: w.TicketPct,
			MoneyPct:  w.MoneyPct,
		})
	}
	if len(splits) == 0 {
		meta.Status = StatusNoData
	}
	return splits, meta
}

// GetInjuries returns the normalized injury list for a sport. The wire
// payload arrives in either the Playbook shape or the ESPN shape; both
// collapse here so downstream signal code sees one schema.
func (c *PlaybookClient) GetInjuries(ctx context.Context, sport string) ([]InjuryReport, Meta) {
	var wire []json.RawMessage
	meta := c.fetchJSON(ctx, "injuries", "/v1/injuries/"+strings.ToLower(sport), map[string]string{
		"sport": sport,
	}, &wire)
	if !meta.OK() {
		return nil, meta
	}
	reports := make([]InjuryReport, 0, len(wire))
	for _, raw := range wire {
		if r, ok := normalizeInjury(raw); ok {
			reports = append(reports, r)
		}
	}
	if len(reports) == 0 {
		meta.Status = StatusNoData
	}
	return reports, meta
}

// normalizeInjury collapses the two known wire shapes into InjuryReport.
func normalizeInjury(raw json.RawMessage) (InjuryReport, bool) {
	// Playbook shape: flat fields.
	var pb struct {
		Player string `json:"player"`
		Team   string `json:"team"`
		Status string `json:"injury_status"`
		Note   string `json:"note"`
	}
	if err := json.Unmarshal(raw, &pb); err == nil && pb.Player != "" {
		return InjuryReport{
			Team:   pb.Team,
			Player: pb.Player,
			Status: strings.ToUpper(pb.Status),
			Note:   pb.Note,
		}, true
	}

	// ESPN shape: nested athlete/team/status objects.
	var es struct {
		Athlete struct {
			DisplayName string `json:"displayName"`
		} `json:"athlete"`
		Team struct {
			Abbreviation string `json:"abbreviation"`
		} `json:"team"`
		Status struct {
			Type string `json:"type"`
		} `json:"status"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &es); err == nil && es.Athlete.DisplayName != "" {
		return InjuryReport{
			Team:   es.Team.Abbreviation,
			Player: es.Athlete.DisplayName,
			Status: strings.ToUpper(es.Status.Type),
			Note:   es.Details,
		}, true
	}
	return InjuryReport{}, false
}
