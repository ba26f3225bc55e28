// Package selection filters, dedupes and tiers scored picks.
package selection

import (
	"sort"
	"strings"
	"time"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// Select runs the post-scoring pipeline for one ET day:
// ET-day filter, minimum-score floor, contradiction dedup, tiering, sort.
func Select(scored []picks.ScoredPick, day time.Time) []picks.ScoredPick {
	var kept []picks.ScoredPick
	for _, p := range scored {
		if !timeauth.WithinDayET(p.Candidate.StartTime, day) {
			continue
		}
		if p.FinalScore < contract.MinDisplayScore {
			continue
		}
		kept = append(kept, p)
	}

	kept = dedupe(kept)

	for i := range kept {
		kept[i].Tier = Tier(kept[i])
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.ConfluenceBoost != b.ConfluenceBoost {
			return a.ConfluenceBoost > b.ConfluenceBoost
		}
		return a.AIScore > b.AIScore
	})
	return kept
}

// dedupe keeps at most one pick per (event, market, side); when two picks
// target opposite sides of the same market, the higher score survives.
func dedupe(in []picks.ScoredPick) []picks.ScoredPick {
	bySlot := make(map[string]picks.ScoredPick)   // event|market|side
	byMarket := make(map[string]picks.ScoredPick) // event|market, best across sides
	for _, p := range in {
		market := strings.ToLower(p.Candidate.Market())
		slot := p.Candidate.EventID + "|" + market + "|" + strings.ToLower(p.Candidate.Side)
		if prev, ok := bySlot[slot]; !ok || p.FinalScore > prev.FinalScore {
			bySlot[slot] = p
		}
	}
	for _, p := range bySlot {
		mk := p.Candidate.EventID + "|" + strings.ToLower(p.Candidate.Market())
		if prev, ok := byMarket[mk]; !ok || p.FinalScore > prev.FinalScore {
			byMarket[mk] = p
		}
	}
	out := make([]picks.ScoredPick, 0, len(byMarket))
	for _, p := range byMarket {
		out = append(out, p)
	}
	return out
}

// Tier classifies one pick. Titanium requires at least three of the four
// engine scores at 8.0 or better; the remaining tiers come from the
// Gold-Star gate and the Silver floor.
func Tier(p picks.ScoredPick) string {
	if IsTitanium(p) {
		return contract.TierTitanium
	}
	if p.AIScore >= contract.GoldStarAIMin &&
		p.ResearchScore >= contract.GoldStarResearchMin &&
		p.JarvisScore >= contract.GoldStarJarvisMin &&
		p.EsotericScore >= contract.GoldStarEsotericMin &&
		p.FinalScore >= contract.GoldStarFinalMin {
		return contract.TierGoldStar
	}
	if p.FinalScore >= contract.SilverFloor {
		return contract.TierSilver
	}
	return contract.TierStandard
}

// IsTitanium applies the titanium rule exactly.
func IsTitanium(p picks.ScoredPick) bool {
	n := 0
	for _, s := range p.EngineScores() {
		if s >= contract.TitaniumEngineBar {
			n++
		}
	}
	return n >= contract.TitaniumEnginesMin
}
