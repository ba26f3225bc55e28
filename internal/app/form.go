package app

import (
	"strings"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/persistence"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// teamForm is the rolling win history derived from the team-result log. The
// streak and win-date signals read it per candidate.
type teamForm struct {
	winDates []time.Time
	streak   int
	lastGame time.Time
}

// buildTeamForms folds team results, in append (chronological) order, into
// per-team form keyed by lowercase team name.
func buildTeamForms(rows []persistence.TeamResult) map[string]teamForm {
	out := map[string]teamForm{}
	for _, r := range rows {
		key := strings.ToLower(r.Team)
		f := out[key]
		if r.GameTime.After(f.lastGame) {
			f.lastGame = r.GameTime
		}
		if r.Won {
			f.winDates = append(f.winDates, r.GameTime)
			f.streak++
		} else {
			f.streak = 0
		}
		out[key] = f
	}
	return out
}

// teamFormFor returns the candidate team's form, loading the sport's result
// log on first use. The grading job drops the cache after appending new rows.
func (e *Engine) teamFormFor(sport, team string) (teamForm, bool) {
	key := strings.ToUpper(sport)
	e.mu.RLock()
	bySport, ok := e.forms[key]
	e.mu.RUnlock()
	if !ok {
		rows, err := e.store.LoadTeamResults(sport)
		if err != nil {
			return teamForm{}, false
		}
		bySport = buildTeamForms(rows)
		e.mu.Lock()
		e.forms[key] = bySport
		e.mu.Unlock()
	}
	f, ok := bySport[strings.ToLower(team)]
	return f, ok
}

func (e *Engine) dropForms() {
	e.mu.Lock()
	e.forms = map[string]map[string]teamForm{}
	e.mu.Unlock()
}

// formTeam picks the side whose form the candidate's signals should read.
// Props ride on the player's listed home side.
func formTeam(cand picks.Candidate) string {
	if cand.Side == "away" {
		return cand.AwayTeam
	}
	return cand.HomeTeam
}
