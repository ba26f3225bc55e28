package signals

import (
	"fmt"
	"math"
	"strings"

	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// phase8Signals computes the small esoteric deltas outside the GLITCH
// aggregate. Each adds a bounded delta to the raw accumulator.
func phase8Signals(in Inputs) map[string]picks.Contribution {
	out := map[string]picks.Contribution{
		"numerology":         numerology(in),
		"vedic":              shadowZero(vedic(in), in.Moon.Meta),
		"fibonacci":          fibonacciAlignment(in),
		"tesla369":           tesla369(in),
		"daily_energy":       dailyEnergy(in),
		"gematria_founder":   gematriaFounder(in),
		"lunar_intensity":    shadowZero(lunarIntensity(in), in.Moon.Meta),
		"mercury_retrograde": mercuryRetrograde(in),
		"rivalry":            rivalrySignal(in),
		"streak_momentum":    streakMomentum(in),
		"solar_flare":        shadowZero(solarFlare(in), in.Flares.Meta),
	}
	// Biorhythm applies to props only; Gann squares to game markets only.
	if in.Cand.PickType == picks.TypeProp {
		out["biorhythm"] = biorhythm(in)
	} else {
		out["gann"] = gannSquare(in)
	}
	return out
}

// digitRoot reduces n to a single digit, preserving master numbers 11/22/33.
func digitRoot(n int) int {
	for n > 9 && n != 11 && n != 22 && n != 33 {
		sum := 0
		for m := n; m > 0; m /= 10 {
			sum += m % 10
		}
		n = sum
	}
	return n
}

// Gematria value of a name: simple English ordinal cipher.
func gematria(name string) int {
	sum := 0
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			sum += int(r-'A') + 1
		}
	}
	return sum
}

func numerology(in Inputs) picks.Contribution {
	d := in.Cand.StartTime
	if d.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	root := digitRoot(d.Year() + int(d.Month()) + d.Day())
	raw := map[string]interface{}{"date_root": root}
	if root == 11 || root == 22 || root == 33 {
		return picks.Contribution{
			Value: 0.2, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Master number date root %d", root)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	if root == 8 {
		return picks.Contribution{
			Value: 0.1, Triggered: true,
			Reasons:    []string{"Power date root 8"},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// vedic approximates the sidereal lunar mansion from the synodic phase.
func vedic(in Inputs) picks.Contribution {
	status := statusOf(in.Moon.Meta)
	if status != "SUCCESS" && status != "FALLBACK" {
		return picks.Contribution{Provenance: external(in.Moon.Meta, nil)}
	}
	nakshatra := int(in.Moon.Value.Phase*27) % 27
	raw := map[string]interface{}{"nakshatra": nakshatra}
	// Favorable mansions per the sidereal table.
	favorable := map[int]bool{3: true, 7: true, 12: true, 16: true, 21: true, 26: true}
	if favorable[nakshatra] {
		return picks.Contribution{
			Value: 0.15, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Favorable nakshatra %d", nakshatra)},
			Provenance: external(in.Moon.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Moon.Meta, raw)}
}

var fibNumbers = []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233}

// fibonacciAlignment fires when the line sits on a Fibonacci number or a
// golden-ratio retracement of the line history range.
func fibonacciAlignment(in Inputs) picks.Contribution {
	line := math.Abs(in.Cand.Line)
	if line == 0 {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	raw := map[string]interface{}{"line": line}
	for _, f := range fibNumbers {
		if math.Abs(line-f) < 0.25 {
			return picks.Contribution{
				Value: 0.15, Triggered: true,
				Reasons:    []string{fmt.Sprintf("Line %.1f on Fibonacci %g", line, f)},
				Provenance: picks.Internal("SUCCESS", raw),
			}
		}
	}
	if len(in.LineHistory) >= 2 {
		lo, hi := minMax(in.LineHistory)
		if hi > lo {
			retr := (line - lo) / (hi - lo)
			raw["retracement"] = retr
			if math.Abs(retr-0.618) < 0.03 || math.Abs(retr-0.382) < 0.03 {
				return picks.Contribution{
					Value: 0.1, Triggered: true,
					Reasons:    []string{fmt.Sprintf("Golden retracement %.3f", retr)},
					Provenance: picks.Internal("SUCCESS", raw),
				}
			}
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// tesla369 checks the vortex digits of the line and game day.
func tesla369(in Inputs) picks.Contribution {
	if in.Cand.StartTime.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	dayRoot := digitRoot(in.Cand.StartTime.Day())
	lineRoot := digitRoot(int(math.Abs(in.Cand.Line)))
	raw := map[string]interface{}{"day_root": dayRoot, "line_root": lineRoot}
	vortex := func(n int) bool { return n == 3 || n == 6 || n == 9 }
	if vortex(dayRoot) && vortex(lineRoot) {
		return picks.Contribution{
			Value: 0.15, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Tesla vortex alignment %d/%d", dayRoot, lineRoot)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// dailyEnergy is the universal day number.
func dailyEnergy(in Inputs) picks.Contribution {
	d := in.Cand.StartTime
	if d.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	day := digitRoot(d.Year()%100 + int(d.Month()) + d.Day())
	raw := map[string]interface{}{"universal_day": day}
	if day == 1 || day == 9 {
		return picks.Contribution{
			Value: 0.1, Triggered: true,
			Reasons:    []string{fmt.Sprintf("High-energy universal day %d", day)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// biorhythm runs the classic 23/28/33-day cycles from the player birthday.
// Props only.
func biorhythm(in Inputs) picks.Contribution {
	if in.PlayerBirthday.IsZero() || in.Cand.StartTime.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	days := in.Cand.StartTime.Sub(in.PlayerBirthday).Hours() / 24
	physical := math.Sin(2 * math.Pi * days / 23)
	emotional := math.Sin(2 * math.Pi * days / 28)
	intellectual := math.Sin(2 * math.Pi * days / 33)
	composite := (physical + emotional + intellectual) / 3
	raw := map[string]interface{}{
		"physical": physical, "emotional": emotional, "intellectual": intellectual,
	}
	if composite > 0.5 {
		return picks.Contribution{
			Value: 0.2, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Biorhythm peak %.2f", composite)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	if composite < -0.5 {
		return picks.Contribution{
			Value: -0.2, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Biorhythm trough %.2f", composite)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// gannSquare maps the line onto the Square of Nine. Game markets only.
func gannSquare(in Inputs) picks.Contribution {
	line := math.Abs(in.Cand.Line)
	if line == 0 {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	root := math.Sqrt(line)
	frac := root - math.Floor(root)
	raw := map[string]interface{}{"sqrt": root}
	// Cardinal cross positions: 0, .25, .5, .75 of a rotation.
	for _, angle := range []float64{0, 0.25, 0.5, 0.75} {
		if math.Abs(frac-angle) < 0.03 {
			return picks.Contribution{
				Value: 0.1, Triggered: true,
				Reasons:    []string{fmt.Sprintf("Gann cardinal angle at line %.1f", line)},
				Provenance: picks.Internal("SUCCESS", raw),
			}
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// gematriaFounder echoes the selection's team name value against the date.
func gematriaFounder(in Inputs) picks.Contribution {
	team := in.Cand.Selection
	if team == "" || in.Cand.StartTime.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	g := gematria(team)
	dateRoot := digitRoot(in.Cand.StartTime.Day() + int(in.Cand.StartTime.Month()))
	raw := map[string]interface{}{"gematria": g, "date_root": dateRoot}
	if digitRoot(g) == dateRoot {
		return picks.Contribution{
			Value: 0.15, Triggered: true,
			Reasons:    []string{fmt.Sprintf("Founder's echo: %s gematria %d resonates with date", team, g)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// lunarIntensity scales with proximity to full or new moon.
func lunarIntensity(in Inputs) picks.Contribution {
	status := statusOf(in.Moon.Meta)
	if status != "SUCCESS" && status != "FALLBACK" {
		return picks.Contribution{Provenance: external(in.Moon.Meta, nil)}
	}
	phase := in.Moon.Value.Phase
	distFull := math.Abs(phase - 0.5)
	distNew := math.Min(phase, 1-phase)
	raw := map[string]interface{}{"phase": phase}
	if distFull < 0.03 {
		return picks.Contribution{
			Value: 0.2, Triggered: true,
			Reasons:    []string{"Full moon intensity"},
			Provenance: external(in.Moon.Meta, raw),
		}
	}
	if distNew < 0.03 {
		return picks.Contribution{
			Value: 0.1, Triggered: true,
			Reasons:    []string{"New moon reset"},
			Provenance: external(in.Moon.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Moon.Meta, raw)}
}

func mercuryRetrograde(in Inputs) picks.Contribution {
	raw := map[string]interface{}{"retrograde": in.MercuryRetro}
	if in.MercuryRetro {
		return picks.Contribution{
			Value: -0.15, Triggered: true,
			Reasons:    []string{"Mercury retrograde caution"},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

func rivalrySignal(in Inputs) picks.Contribution {
	raw := map[string]interface{}{"rivalry": in.Rivalry}
	if in.Rivalry {
		return picks.Contribution{
			Value: 0.15, Triggered: true,
			Reasons:    []string{"Rivalry intensity game"},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

func streakMomentum(in Inputs) picks.Contribution {
	raw := map[string]interface{}{"streak_wins": in.StreakWins}
	if in.StreakWins >= 5 {
		return picks.Contribution{
			Value: 0.2, Triggered: true,
			Reasons:    []string{fmt.Sprintf("%d-game win streak momentum", in.StreakWins)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	if in.StreakWins >= 3 {
		return picks.Contribution{
			Value: 0.1, Triggered: true,
			Reasons:    []string{fmt.Sprintf("%d-game win streak", in.StreakWins)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// solarFlare reacts to M- and X-class flares in the last day.
func solarFlare(in Inputs) picks.Contribution {
	status := statusOf(in.Flares.Meta)
	if status != "SUCCESS" {
		return picks.Contribution{Provenance: external(in.Flares.Meta, nil)}
	}
	strongest := ""
	for _, f := range in.Flares.Value {
		if len(f.Class) == 0 {
			continue
		}
		switch f.Class[0] {
		case 'X':
			strongest = "X"
		case 'M':
			if strongest != "X" {
				strongest = "M"
			}
		}
	}
	raw := map[string]interface{}{"strongest_class": strongest, "flares": len(in.Flares.Value)}
	switch strongest {
	case "X":
		return picks.Contribution{
			Value: 0.25, Triggered: true,
			Reasons:    []string{"X-class solar flare activity"},
			Provenance: external(in.Flares.Meta, raw),
		}
	case "M":
		return picks.Contribution{
			Value: 0.1, Triggered: true,
			Reasons:    []string{"M-class solar flare activity"},
			Provenance: external(in.Flares.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Flares.Meta, raw)}
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
