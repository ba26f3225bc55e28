package signals

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

func successMeta(provider string) providers.Meta {
	return providers.Meta{Provider: provider, Status: providers.StatusSuccess}
}

func spreadInputs() Inputs {
	return Inputs{
		Cand: picks.Candidate{PickType: picks.TypeSpread, Side: "home", Line: -3.5},
		Board: Sourced[providers.OddsBoard]{
			Meta: providers.Meta{Provider: "odds", Status: providers.StatusNoData},
		},
		Splits: Sourced[*providers.SplitRecord]{
			Meta: providers.Meta{Provider: "playbook", Status: providers.StatusNoData},
		},
		ESPNLine: Sourced[float64]{Meta: providers.Meta{Provider: "espn", Status: providers.StatusNoData}},
	}
}

func TestSharpBoostRequiresPlaybookSuccess(t *testing.T) {
	in := spreadInputs()
	// Heavy cross-book variance on the odds board must never produce a sharp
	// signal while the splits feed is down.
	in.Board = Sourced[providers.OddsBoard]{
		Value: providers.OddsBoard{Quotes: []providers.BookQuote{
			{Book: "a", Market: "spread", Side: "home", Line: -2.5},
			{Book: "b", Market: "spread", Side: "home", Line: -6.5},
		}},
		Meta: successMeta("odds"),
	}
	in.Splits.Meta = providers.Meta{Provider: "playbook", Status: providers.StatusTimeout}

	res := ResearchEngine{}.Score(in)
	assert.Equal(t, SharpNone, res.SharpStrength)
	assert.Zero(t, res.SharpBoost)
	assert.Positive(t, res.LineBoost)
	for _, reason := range res.Reasons {
		assert.False(t, strings.HasPrefix(reason, "Sharp"), "reason %q", reason)
	}
	sharp := res.Contributions["sharp"]
	assert.Equal(t, "playbook", sharp.Provenance.SourceAPI)
	assert.NotEqual(t, "SUCCESS", sharp.Provenance.Status)
}

func TestSharpBoostFromDivergence(t *testing.T) {
	in := spreadInputs()
	in.Splits = Sourced[*providers.SplitRecord]{
		Value: &providers.SplitRecord{Market: "spread", Side: "home", TicketPct: 30, MoneyPct: 48},
		Meta:  successMeta("playbook"),
	}
	res := ResearchEngine{}.Score(in)
	assert.Equal(t, SharpModerate, res.SharpStrength)
	assert.Equal(t, 0.25, res.SharpBoost)

	sharp := res.Contributions["sharp"]
	require.NotNil(t, sharp.Provenance.RawInputs)
	assert.Equal(t, 30.0, sharp.Provenance.RawInputs["ticket_pct"])
	assert.Equal(t, 48.0, sharp.Provenance.RawInputs["money_pct"])
}

func TestSharpStrongAtHighDivergence(t *testing.T) {
	in := spreadInputs()
	in.Splits = Sourced[*providers.SplitRecord]{
		Value: &providers.SplitRecord{Market: "spread", Side: "home", TicketPct: 25, MoneyPct: 55},
		Meta:  successMeta("playbook"),
	}
	res := ResearchEngine{}.Score(in)
	assert.Equal(t, SharpStrong, res.SharpStrength)
	assert.Equal(t, 0.5, res.SharpBoost)
}

func TestLineBoostRequiresOddsBoard(t *testing.T) {
	in := spreadInputs()
	// A qualifying sharp divergence must never leak into the line signal.
	in.Splits = Sourced[*providers.SplitRecord]{
		Value: &providers.SplitRecord{Market: "spread", Side: "home", TicketPct: 20, MoneyPct: 60},
		Meta:  successMeta("playbook"),
	}
	res := ResearchEngine{}.Score(in)
	assert.Zero(t, res.LineBoost)
	line := res.Contributions["line_variance"]
	assert.Equal(t, "odds", line.Provenance.SourceAPI)
}

func TestLineVarianceBelowThresholdNoBoost(t *testing.T) {
	in := spreadInputs()
	in.Board = Sourced[providers.OddsBoard]{
		Value: providers.OddsBoard{Quotes: []providers.BookQuote{
			{Book: "a", Market: "spread", Side: "home", Line: -3.5},
			{Book: "b", Market: "spread", Side: "home", Line: -4.0},
		}},
		Meta: successMeta("odds"),
	}
	res := ResearchEngine{}.Score(in)
	assert.Zero(t, res.LineBoost)
}

func TestShadowedSplitsClientContributesZero(t *testing.T) {
	in := spreadInputs()
	in.Splits = Sourced[*providers.SplitRecord]{
		Value: &providers.SplitRecord{Market: "spread", Side: "home", TicketPct: 30, MoneyPct: 48},
		Meta:  providers.Meta{Provider: "playbook", Status: providers.StatusSuccess, Shadow: true},
	}
	res := ResearchEngine{}.Score(in)
	assert.Zero(t, res.SharpBoost)

	sharp := res.Contributions["sharp"]
	assert.Zero(t, sharp.Value)
	assert.False(t, sharp.Triggered)
	require.NotNil(t, sharp.Provenance.RawInputs)
	assert.Equal(t, 0.25, sharp.Provenance.RawInputs["computed"])
}

func TestReverseLineMove(t *testing.T) {
	in := spreadInputs()
	in.Splits = Sourced[*providers.SplitRecord]{
		Value: &providers.SplitRecord{Market: "spread", Side: "home", TicketPct: 70, MoneyPct: 68},
		Meta:  successMeta("playbook"),
	}
	in.LineHistory = []float64{-3.0, -3.5, -4.0}
	res := ResearchEngine{}.Score(in)
	rlm := res.Contributions["rlm"]
	assert.True(t, rlm.Triggered)
	assert.Equal(t, 0.4, rlm.Value)
}
