package providers

import (
	"strings"
	"time"
)

// Game is one scheduled or live event from the scoreboard.
type Game struct {
	Sport     string    `json:"sport"`
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"` // SCHEDULED, LIVE, FINAL
	Venue     string    `json:"venue"`
	Indoor    bool      `json:"indoor"`
	Surface   string    `json:"surface,omitempty"`
	Altitude  float64   `json:"altitude_ft,omitempty"`
	Latitude  float64   `json:"lat,omitempty"`
	Longitude float64   `json:"lon,omitempty"`
	HomeScore int       `json:"home_score,omitempty"`
	AwayScore int       `json:"away_score,omitempty"`
	Period    int       `json:"period,omitempty"`
}

// BookQuote is one book's price on one market side.
type BookQuote struct {
	Book          string  `json:"book"`
	Market        string  `json:"market"` // spread, total, moneyline
	Side          string  `json:"side"`
	Line          float64 `json:"line"`
	PriceAmerican int     `json:"price_american"`
}

// OddsBoard is the cross-book view of one event.
type OddsBoard struct {
	EventID string      `json:"event_id"`
	Quotes  []BookQuote `json:"quotes"`
}

// LineValues returns every book's line for a market, for variance and
// Benford math. Values are aggregated across books.
func (ob OddsBoard) LineValues(market string) []float64 {
	var out []float64
	for _, q := range ob.Quotes {
		if strings.EqualFold(q.Market, market) {
			out = append(out, q.Line)
		}
	}
	return out
}

// LineVariance returns the cross-book max-min spread for a market.
func (ob OddsBoard) LineVariance(market string) (float64, bool) {
	vals := ob.LineValues(market)
	if len(vals) < 2 {
		return 0, false
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo, true
}

// PropOffer is one player prop market.
type PropOffer struct {
	Sport     string    `json:"sport"`
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Player    string    `json:"player"`
	StatType  string    `json:"stat_type"`
	Line      float64   `json:"line"`
	OverOdds  int       `json:"over_odds"`
	UnderOdds int       `json:"under_odds"`
	StartTime time.Time `json:"start_time"`
}

// SplitRecord is the ticket/money split for one market side.
type SplitRecord struct {
	EventID   string  `json:"event_id"`
	Market    string  `json:"market"`
	Side      string  `json:"side"`
	TicketPct float64 `json:"ticket_pct"`
	MoneyPct  float64 `json:"money_pct"`
}

// Divergence is money% minus ticket%; positive means sharp money leans in.
func (s SplitRecord) Divergence() float64 { return s.MoneyPct - s.TicketPct }

// InjuryReport is the single normalized injury shape. Providers return
// either a Playbook-shaped or an ESPN-shaped object; the client boundary
// collapses both into this.
type InjuryReport struct {
	Team   string `json:"team"`
	Player string `json:"player"`
	Status string `json:"status"` // OUT, DOUBTFUL, QUESTIONABLE, PROBABLE
	Note   string `json:"note,omitempty"`
}

// WeatherSnapshot is game-time weather at the venue.
type WeatherSnapshot struct {
	TempF      float64 `json:"temp_f"`
	WindMPH    float64 `json:"wind_mph"`
	PrecipPct  float64 `json:"precip_pct"`
	Conditions string  `json:"conditions"`
}

// KpReading is the planetary geomagnetic index.
type KpReading struct {
	Kp         float64   `json:"kp"`
	ObservedAt time.Time `json:"observed_at"`
}

// SolarFlare is one classified flare event.
type SolarFlare struct {
	Class  string    `json:"class"` // A, B, C, M, X with magnitude suffix
	PeakAt time.Time `json:"peak_at"`
}

// MoonInfo carries lunar state for a date.
type MoonInfo struct {
	Phase        float64 `json:"phase"` // 0 new .. 0.5 full .. 1 new
	Illumination float64 `json:"illumination"`
	PhaseName    string  `json:"phase_name"`
	VoidOfCourse bool    `json:"void_of_course"`
}

// TrendPoint is search-interest velocity for a query.
type TrendPoint struct {
	Query    string    `json:"query"`
	Velocity float64   `json:"velocity"` // recent vs baseline interest ratio
	Series   []float64 `json:"series,omitempty"`
}

// SERPResult is a search-results snapshot for a query.
type SERPResult struct {
	Query        string   `json:"query"`
	TotalResults int64    `json:"total_results"`
	Headlines    []string `json:"headlines,omitempty"`
}

// NewsItem is one headline.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// QuoteSentiment is the day move of a sentiment-proxy symbol.
type QuoteSentiment struct {
	Symbol    string  `json:"symbol"`
	ChangePct float64 `json:"change_pct"`
}

// OfficialsReport is the assigned crew and its tendencies.
type OfficialsReport struct {
	EventID         string   `json:"event_id"`
	Referees        []string `json:"referees"`
	AvgFoulsPerGame float64  `json:"avg_fouls_per_game"`
	HomeWinPct      float64  `json:"home_win_pct"`
	TotalOverPct    float64  `json:"total_over_pct"`
}

// PlayerLog is a recent-game stat series for one player and stat type.
type PlayerLog struct {
	Player   string    `json:"player"`
	StatType string    `json:"stat_type"`
	Values   []float64 `json:"values"`
	Pace     float64   `json:"pace,omitempty"`
	Usage    float64   `json:"usage,omitempty"`
}

// indoorSports never get a weather read; the relevance gate turns the call
// into NOT_RELEVANT before it leaves the process.
var indoorSports = map[string]bool{
	"NBA": true, "NHL": true, "NCAAB": true, "WNBA": true,
}

// IndoorSport reports whether a sport plays indoors.
func IndoorSport(sport string) bool { return indoorSports[strings.ToUpper(sport)] }
