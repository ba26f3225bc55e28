package providers

import (
	"context"
	"strings"
)

// StatsClient wraps the player-stats API feeding the AI engine and the
// context modifier.
type StatsClient struct {
	base
}

// NewStatsClient builds the stats client.
func NewStatsClient(deps Deps, baseURL, apiKey string) *StatsClient {
	return &StatsClient{base: newBase(deps, "statsapi", baseURL, apiKey)}
}

// GetPlayerLog returns the recent-game series for one player and stat type.
func (c *StatsClient) GetPlayerLog(ctx context.Context, sport, player, statType string) (PlayerLog, Meta) {
	var wire struct {
		Player string    `json:"player"`
		Stat   string    `json:"stat_type"`
		Values []float64 `json:"values"`
		Pace   float64   `json:"pace"`
		Usage  float64   `json:"usage"`
	}
	meta := c.fetchJSON(ctx, "player_logs", "/v2/players/gamelog", map[string]string{
		"sport":  sport,
		"player": player,
		"stat":   statType,
	}, &wire)
	log := PlayerLog{Player: player, StatType: strings.ToLower(statType)}
	if !meta.OK() {
		return log, meta
	}
	log.Values = wire.Values
	log.Pace = wire.Pace
	log.Usage = wire.Usage
	if len(log.Values) == 0 {
		meta.Status = StatusNoData
	}
	return log, meta
}

// GetTeamPace returns team pace and defensive rank for the context modifier.
func (c *StatsClient) GetTeamPace(ctx context.Context, sport, team string) (pace float64, defRank int, meta Meta) {
	var wire struct {
		Pace    float64 `json:"pace"`
		DefRank int     `json:"defensive_rank"`
	}
	meta = c.fetchJSON(ctx, "player_logs", "/v2/teams/profile", map[string]string{
		"sport": sport,
		"team":  team,
	}, &wire)
	if !meta.OK() {
		return 0, 0, meta
	}
	if wire.Pace == 0 && wire.DefRank == 0 {
		meta.Status = StatusNoData
	}
	return wire.Pace, wire.DefRank, meta
}
