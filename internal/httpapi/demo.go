package httpapi

import (
	"os"

	"github.com/peterostrander2/ai-betting-backend/internal/app"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

func environ() []string { return os.Environ() }

// demoResponse is a static illustrative payload. It is reachable only behind
// the double gate and never substitutes for an empty real answer.
func demoResponse(sport string) app.Response {
	now := timeauth.NowET()
	pick := picks.ScoredPickOut{
		PickID:       "demo-0001",
		Sport:        sport,
		Matchup:      "Visitors @ Hosts",
		Selection:    "Hosts",
		SelectionHA:  "home",
		Market:       "spread",
		PickType:     picks.TypeSpread,
		Line:         -3.5,
		OddsAmerican: -110,
		StartTimeET:  timeauth.FormatETTimestamp(now),

		AIScore:       7.2,
		ResearchScore: 7.8,
		EsotericScore: 6.4,
		JarvisScore:   6.9,
		Base4Score:    7.23,

		FinalScore: 7.4,
		Tier:       "SILVER",

		AIReasons:       []string{"Demo payload, not a real pick"},
		ResearchReasons: []string{},
		EsotericReasons: []string{},
		JarvisReasons:   []string{},

		PerSignalProvenance: map[string]picks.ProvenanceOut{},
	}
	return app.Response{
		Sport:              sport,
		DateET:             timeauth.FormatETDate(now),
		RunTimestampET:     timeauth.FormatETTimestamp(now),
		GamePicks:          app.PickGroup{Count: 1, Picks: []picks.ScoredPickOut{pick}},
		Props:              app.PickGroup{Count: 0, Picks: []picks.ScoredPickOut{}},
		Errors:             []app.ErrorEntry{},
		TimedOutComponents: []string{},
	}
}
