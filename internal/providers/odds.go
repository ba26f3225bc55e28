package providers

import (
	"context"
	"strings"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// OddsClient wraps the odds aggregation API: scoreboards, cross-book line
// boards, player props and event officials.
type OddsClient struct {
	base
}

// NewOddsClient builds the odds client.
func NewOddsClient(deps Deps, baseURL, apiKey string) *OddsClient {
	c := &OddsClient{base: newBase(deps, "odds", baseURL, apiKey)}
	c.SetTimeout(3 * time.Second) // board fan-out runs a little heavier
	return c
}

type wireEvent struct {
	ID        string  `json:"id"`
	Sport     string  `json:"sport_key"`
	HomeTeam  string  `json:"home_team"`
	AwayTeam  string  `json:"away_team"`
	Commence  string  `json:"commence_time"`
	Status    string  `json:"status"`
	Venue     string  `json:"venue"`
	Indoor    bool    `json:"indoor"`
	Surface   string  `json:"surface"`
	Altitude  float64 `json:"altitude_ft"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	HomeScore int     `json:"home_score"`
	AwayScore int     `json:"away_score"`
	Period    int     `json:"period"`
}

// GetScoreboard returns the day's events for a sport.
func (c *OddsClient) GetScoreboard(ctx context.Context, sport string, day time.Time) ([]Game, Meta) {
	var wire []wireEvent
	meta := c.fetchJSON(ctx, "scoreboard", "/v4/sports/"+strings.ToLower(sport)+"/events", map[string]string{
		"sport": sport,
		"date":  timeauth.FormatETDate(day),
	}, &wire)
	if !meta.OK() {
		return nil, meta
	}
	games := make([]Game, 0, len(wire))
	for _, w := range wire {
		start, err := time.Parse(time.RFC3339, w.Commence)
		if err != nil {
			continue
		}
		status := strings.ToUpper(w.Status)
		if status == "" {
			status = "SCHEDULED"
		}
		games = append(games, Game{
			Sport:     strings.ToUpper(sport),
			EventID:   w.ID,
			HomeTeam:  w.HomeTeam,
			AwayTeam:  w.AwayTeam,
			StartTime: start,
			Status:    status,
			Venue:     w.Venue,
			Indoor:    w.Indoor || IndoorSport(sport),
			Surface:   w.Surface,
			Altitude:  w.Altitude,
			Latitude:  w.Lat,
			Longitude: w.Lon,
			HomeScore: w.HomeScore,
			AwayScore: w.AwayScore,
			Period:    w.Period,
		})
	}
	if len(games) == 0 {
		meta.Status = StatusNoData
	}
	return games, meta
}

type wireBookmaker struct {
	Key     string `json:"key"`
	Markets []struct {
		Key      string `json:"key"`
		Outcomes []struct {
			Name  string  `json:"name"`
			Point float64 `json:"point"`
			Price int     `json:"price"`
		} `json:"outcomes"`
	} `json:"markets"`
}

// GetBoard returns the cross-book quote board for one event.
func (c *OddsClient) GetBoard(ctx context.Context, sport, eventID string) (OddsBoard, Meta) {
	var wire struct {
		ID         string          `json:"id"`
		Bookmakers []wireBookmaker `json:"bookmakers"`
	}
	meta := c.fetchJSON(ctx, "odds_board", "/v4/sports/"+strings.ToLower(sport)+"/events/"+eventID+"/odds", map[string]string{
		"sport":   sport,
		"event":   eventID,
		"markets": "spreads,totals,h2h",
	}, &wire)
	board := OddsBoard{EventID: eventID}
	if !meta.OK() {
		return board, meta
	}
	for _, bm := range wire.Bookmakers {
		for _, mkt := range bm.Markets {
			market := normalizeMarket(mkt.Key)
			for _, o := range mkt.Outcomes {
				board.Quotes = append(board.Quotes, BookQuote{
					Book:          bm.Key,
					Market:        market,
					Side:          o.Name,
					Line:          o.Point,
					PriceAmerican: o.Price,
				})
			}
		}
	}
	if len(board.Quotes) == 0 {
		meta.Status = StatusNoData
	}
	return board, meta
}

// GetProps returns the player prop offers for a sport and day.
func (c *OddsClient) GetProps(ctx context.Context, sport string, day time.Time) ([]PropOffer, Meta) {
	var wire []struct {
		EventID  string  `json:"event_id"`
		Home     string  `json:"home_team"`
		Away     string  `json:"away_team"`
		Player   string  `json:"player"`
		StatType string  `json:"stat_type"`
		Line     float64 `json:"line"`
		Over     int     `json:"over_odds"`
		Under    int     `json:"under_odds"`
		Commence string  `json:"commence_time"`
	}
	meta := c.fetchJSON(ctx, "odds_props", "/v4/sports/"+strings.ToLower(sport)+"/props", map[string]string{
		"sport": sport,
		"date":  timeauth.FormatETDate(day),
	}, &wire)
	if !meta.OK() {
		return nil, meta
	}
	props := make([]PropOffer, 0, len(wire))
	for _, w := range wire {
		start, err := time.Parse(time.RFC3339, w.Commence)
		if err != nil {
			continue
		}
		props = append(props, PropOffer{
			Sport:     strings.ToUpper(sport),
			EventID:   w.EventID,
			HomeTeam:  w.Home,
			AwayTeam:  w.Away,
			Player:    w.Player,
			StatType:  strings.ToLower(w.StatType),
			Line:      w.Line,
			OverOdds:  w.Over,
			UnderOdds: w.Under,
			StartTime: start,
		})
	}
	if len(props) == 0 {
		meta.Status = StatusNoData
	}
	return props, meta
}

// GetEventOfficials returns the assigned crew and tendencies for an event.
func (c *OddsClient) GetEventOfficials(ctx context.Context, sport, eventID string) (OfficialsReport, Meta) {
	var wire OfficialsReport
	meta := c.fetchJSON(ctx, "officials", "/v4/sports/"+strings.ToLower(sport)+"/events/"+eventID+"/officials", map[string]string{
		"sport": sport,
		"event": eventID,
	}, &wire)
	wire.EventID = eventID
	if meta.OK() && len(wire.Referees) == 0 {
		meta.Status = StatusNoData
	}
	return wire, meta
}

func normalizeMarket(key string) string {
	switch strings.ToLower(key) {
	case "spreads", "spread":
		return "spread"
	case "totals", "total":
		return "total"
	case "h2h", "moneyline":
		return "moneyline"
	default:
		return strings.ToLower(key)
	}
}
