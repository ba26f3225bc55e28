package app

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

// candidates turns the fetched day into the scoring universe: both sides of
// every game market, both sides of every prop, plus sharp-flagged sides from
// the splits feed.
func (e *Engine) candidates(sport string, data *fetched) []picks.Candidate {
	var out []picks.Candidate
	for _, game := range data.games {
		gd := data.perGame[game.EventID]
		if gd == nil {
			continue
		}
		out = append(out, gameCandidates(sport, game, gd.board)...)
	}
	for _, offer := range data.props {
		out = append(out, propCandidates(sport, offer)...)
	}
	out = append(out, e.sharpCandidates(sport, data)...)
	return out
}

func gameCandidates(sport string, game providers.Game, board providers.OddsBoard) []picks.Candidate {
	var out []picks.Candidate
	base := picks.Candidate{
		Sport:     sport,
		HomeTeam:  game.HomeTeam,
		AwayTeam:  game.AwayTeam,
		StartTime: game.StartTime,
		EventID:   game.EventID,
		GameLive:  game.Status == "LIVE",
	}
	for _, market := range []string{"spread", "moneyline", "total"} {
		sides := consensusSides(board, market, game)
		for side, q := range sides {
			c := base
			c.Side = side
			c.Line = q.Line
			c.OddsUS = q.PriceAmerican
			switch market {
			case "spread":
				c.PickType = picks.TypeSpread
				c.Selection = teamFor(side, game)
			case "moneyline":
				c.PickType = picks.TypeMoneyline
				c.Selection = teamFor(side, game)
				c.Line = 0
			case "total":
				c.PickType = picks.TypeTotal
				if side == "over" {
					c.Selection = "Over"
				} else {
					c.Selection = "Under"
				}
			}
			out = append(out, c)
		}
	}
	return out
}

func propCandidates(sport string, offer providers.PropOffer) []picks.Candidate {
	base := picks.Candidate{
		PickType:  picks.TypeProp,
		Sport:     sport,
		HomeTeam:  offer.HomeTeam,
		AwayTeam:  offer.AwayTeam,
		Player:    offer.Player,
		StatType:  offer.StatType,
		Line:      offer.Line,
		StartTime: offer.StartTime,
		EventID:   offer.EventID,
	}
	over := base
	over.Side = "over"
	over.Selection = "Over"
	over.OddsUS = offer.OverOdds
	under := base
	under.Side = "under"
	under.Selection = "Under"
	under.OddsUS = offer.UnderOdds
	return []picks.Candidate{over, under}
}

// sharpCandidates emits SHARP-tagged sides where the playbook splits show a
// qualifying money/ticket divergence.
func (e *Engine) sharpCandidates(sport string, data *fetched) []picks.Candidate {
	if !data.splitMet.OK() {
		return nil
	}
	var out []picks.Candidate
	for _, split := range data.splits {
		if split.Divergence() < contract.SharpDivergenceMin {
			continue
		}
		var game *providers.Game
		for i := range data.games {
			if data.games[i].EventID == split.EventID {
				game = &data.games[i]
				break
			}
		}
		if game == nil {
			continue
		}
		side := strings.ToLower(split.Side)
		out = append(out, picks.Candidate{
			PickType:  picks.TypeSharp,
			Sport:     sport,
			HomeTeam:  game.HomeTeam,
			AwayTeam:  game.AwayTeam,
			Selection: teamFor(side, *game),
			Side:      side,
			StartTime: game.StartTime,
			EventID:   game.EventID,
			GameLive:  game.Status == "LIVE",
		})
	}
	return out
}

// consensusSides picks each side's median-line quote across books.
func consensusSides(board providers.OddsBoard, market string, game providers.Game) map[string]providers.BookQuote {
	bySide := map[string][]providers.BookQuote{}
	for _, q := range board.Quotes {
		if !strings.EqualFold(q.Market, market) {
			continue
		}
		side := sideKey(q.Side, game)
		if side == "" {
			continue
		}
		bySide[side] = append(bySide[side], q)
	}
	out := map[string]providers.BookQuote{}
	for side, quotes := range bySide {
		sort.Slice(quotes, func(i, j int) bool { return quotes[i].Line < quotes[j].Line })
		out[side] = quotes[len(quotes)/2]
	}
	return out
}

// sideKey maps a book outcome name onto home/away/over/under.
func sideKey(name string, game providers.Game) string {
	switch {
	case strings.EqualFold(name, "over"):
		return "over"
	case strings.EqualFold(name, "under"):
		return "under"
	case strings.EqualFold(name, game.HomeTeam):
		return "home"
	case strings.EqualFold(name, game.AwayTeam):
		return "away"
	}
	return ""
}

func teamFor(side string, game providers.Game) string {
	if side == "away" {
		return game.AwayTeam
	}
	return game.HomeTeam
}

const simRuns = 10000

// simWinProb runs the quick Monte-Carlo: a rating edge from the money line,
// pace-scaled noise, a fixed run count. Seeded per event so a request replays
// identically.
func simWinProb(cand picks.Candidate, gd *gameData) (float64, int) {
	if cand.PickType == picks.TypeProp || cand.OddsUS == 0 {
		return 0, 0
	}
	implied := impliedProb(cand.OddsUS)
	edge := (implied - 0.5) * 8 // points of rating edge at the extremes

	h := fnv.New64a()
	h.Write([]byte(cand.EventID + "|" + cand.Side))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	sigma := 10.0
	if gd != nil && gd.homePace > 0 && gd.awayPace > 0 {
		sigma = 8 + (gd.homePace+gd.awayPace-200)/10
	}
	wins := 0
	for i := 0; i < simRuns; i++ {
		if edge+rng.NormFloat64()*sigma > 0 {
			wins++
		}
	}
	return float64(wins) / simRuns, simRuns
}

func impliedProb(odds int) float64 {
	if odds == 0 {
		return 0.5
	}
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0)
	}
	return float64(-odds) / (float64(-odds) + 100.0)
}
