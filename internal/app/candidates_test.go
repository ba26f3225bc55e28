package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

func testGame() providers.Game {
	return providers.Game{
		Sport:    "NBA",
		EventID:  "evt1",
		HomeTeam: "Knicks",
		AwayTeam: "Celtics",
		Status:   "SCHEDULED",
	}
}

func TestImpliedProb(t *testing.T) {
	assert.InDelta(t, 0.5238, impliedProb(-110), 1e-3)
	assert.InDelta(t, 0.4, impliedProb(150), 1e-9)
	assert.Equal(t, 0.5, impliedProb(0))
	assert.InDelta(t, 0.6667, impliedProb(-200), 1e-3)
}

func TestSideKey(t *testing.T) {
	game := testGame()
	assert.Equal(t, "home", sideKey("Knicks", game))
	assert.Equal(t, "away", sideKey("celtics", game))
	assert.Equal(t, "over", sideKey("Over", game))
	assert.Equal(t, "under", sideKey("UNDER", game))
	assert.Equal(t, "", sideKey("Lakers", game))
}

func TestConsensusSidesTakesMedianLine(t *testing.T) {
	game := testGame()
	board := providers.OddsBoard{Quotes: []providers.BookQuote{
		{Book: "a", Market: "spread", Side: "Knicks", Line: -2.5, PriceAmerican: -108},
		{Book: "b", Market: "spread", Side: "Knicks", Line: -3.5, PriceAmerican: -110},
		{Book: "c", Market: "spread", Side: "Knicks", Line: -4.0, PriceAmerican: -112},
		{Book: "a", Market: "spread", Side: "Celtics", Line: 2.5, PriceAmerican: -112},
		{Book: "a", Market: "total", Side: "Over", Line: 212.5, PriceAmerican: -110},
	}}
	sides := consensusSides(board, "spread", game)
	require.Contains(t, sides, "home")
	assert.Equal(t, -3.5, sides["home"].Line)
	require.Contains(t, sides, "away")
	assert.Equal(t, 2.5, sides["away"].Line)
	assert.NotContains(t, sides, "over")
}

func TestGameCandidates(t *testing.T) {
	game := testGame()
	board := providers.OddsBoard{Quotes: []providers.BookQuote{
		{Book: "a", Market: "spread", Side: "Knicks", Line: -3.5, PriceAmerican: -110},
		{Book: "a", Market: "moneyline", Side: "Celtics", Line: 0, PriceAmerican: 140},
		{Book: "a", Market: "total", Side: "Over", Line: 212.5, PriceAmerican: -110},
		{Book: "a", Market: "total", Side: "Under", Line: 212.5, PriceAmerican: -110},
	}}
	cands := gameCandidates("NBA", game, board)
	require.Len(t, cands, 4)

	byType := map[string][]picks.Candidate{}
	for _, c := range cands {
		byType[c.PickType] = append(byType[c.PickType], c)
	}
	require.Len(t, byType[picks.TypeSpread], 1)
	assert.Equal(t, "Knicks", byType[picks.TypeSpread][0].Selection)
	assert.Equal(t, -3.5, byType[picks.TypeSpread][0].Line)

	// Moneyline candidates never carry a line.
	require.Len(t, byType[picks.TypeMoneyline], 1)
	assert.Equal(t, "Celtics", byType[picks.TypeMoneyline][0].Selection)
	assert.Zero(t, byType[picks.TypeMoneyline][0].Line)

	require.Len(t, byType[picks.TypeTotal], 2)
	sels := []string{byType[picks.TypeTotal][0].Selection, byType[picks.TypeTotal][1].Selection}
	assert.ElementsMatch(t, []string{"Over", "Under"}, sels)
}

func TestPropCandidatesBothSides(t *testing.T) {
	offer := providers.PropOffer{
		EventID:   "evt1",
		HomeTeam:  "Knicks",
		AwayTeam:  "Celtics",
		Player:    "Jalen Brunson",
		StatType:  "points",
		Line:      27.5,
		OverOdds:  -115,
		UnderOdds: -105,
	}
	cands := propCandidates("NBA", offer)
	require.Len(t, cands, 2)
	assert.Equal(t, "over", cands[0].Side)
	assert.Equal(t, -115, cands[0].OddsUS)
	assert.Equal(t, "under", cands[1].Side)
	assert.Equal(t, -105, cands[1].OddsUS)
	for _, c := range cands {
		assert.Equal(t, picks.TypeProp, c.PickType)
		assert.Equal(t, 27.5, c.Line)
		assert.Equal(t, "Jalen Brunson", c.Player)
	}
}

func TestSharpCandidatesRequireDivergence(t *testing.T) {
	e := &Engine{}
	game := testGame()
	data := &fetched{
		games:    []providers.Game{game},
		splitMet: providers.Meta{Provider: "playbook", Status: providers.StatusSuccess},
		splits: []providers.SplitRecord{
			{EventID: "evt1", Market: "spread", Side: "Home", TicketPct: 30, MoneyPct: 50},
			{EventID: "evt1", Market: "spread", Side: "Away", TicketPct: 48, MoneyPct: 52},
		},
	}
	out := e.sharpCandidates("NBA", data)
	require.Len(t, out, 1)
	assert.Equal(t, picks.TypeSharp, out[0].PickType)
	assert.Equal(t, "home", out[0].Side)
	assert.Equal(t, "Knicks", out[0].Selection)
}

func TestSharpCandidatesSkipWithoutPlaybook(t *testing.T) {
	e := &Engine{}
	data := &fetched{
		games:    []providers.Game{testGame()},
		splitMet: providers.Meta{Provider: "playbook", Status: providers.StatusTimeout},
		splits: []providers.SplitRecord{
			{EventID: "evt1", Market: "spread", Side: "Home", TicketPct: 20, MoneyPct: 60},
		},
	}
	assert.Empty(t, e.sharpCandidates("NBA", data))
}

func TestSimWinProbDeterministic(t *testing.T) {
	cand := picks.Candidate{
		PickType: picks.TypeMoneyline,
		EventID:  "evt1",
		Side:     "home",
		OddsUS:   -200,
	}
	p1, runs := simWinProb(cand, nil)
	p2, _ := simWinProb(cand, nil)
	assert.Equal(t, simRuns, runs)
	assert.Equal(t, p1, p2)
	assert.Greater(t, p1, 0.5)

	dog := cand
	dog.Side = "away"
	dog.OddsUS = 250
	pd, _ := simWinProb(dog, nil)
	assert.Less(t, pd, 0.5)
}

func TestSimWinProbSkipsPropsAndMissingOdds(t *testing.T) {
	_, runs := simWinProb(picks.Candidate{PickType: picks.TypeProp, OddsUS: -110}, nil)
	assert.Zero(t, runs)
	_, runs = simWinProb(picks.Candidate{PickType: picks.TypeSpread}, nil)
	assert.Zero(t, runs)
}

func TestDigitSum(t *testing.T) {
	assert.Equal(t, 7, digitSum(7))
	assert.Equal(t, 6, digitSum(123))
	assert.Equal(t, 9, digitSum(999))
}

func TestOrdinalGematria(t *testing.T) {
	assert.Equal(t, 6, ordinalGematria("abc"))
	assert.Equal(t, 6, ordinalGematria("A B-C!"))
	assert.Zero(t, ordinalGematria("123"))
}
