package signals

import (
	"fmt"
	"math"

	"github.com/peterostrander2/ai-betting-backend/internal/contract"
	"github.com/peterostrander2/ai-betting-backend/internal/picks"
)

// glitchSignals computes the six physics-flavored anomaly signals. Each
// returns a contribution in [-1, 1]; the aggregate is their fixed weighted
// sum. Signals with insufficient data contribute 0.0 with NO_DATA.
func glitchSignals(in Inputs) map[string]picks.Contribution {
	return map[string]picks.Contribution{
		"chrome_resonance": chromeResonance(in),
		"void_moon":        shadowZero(voidMoon(in), in.Moon.Meta),
		"noosphere":        shadowZero(noosphere(in), in.Trend.Meta),
		"hurst":            hurstSignal(in),
		"kp_index":         shadowZero(kpSignal(in), in.Kp.Meta),
		"benford":          shadowZero(benfordSignal(in), in.Board.Meta),
	}
}

// glitchAggregate folds the six signals through the contract weights.
func glitchAggregate(sigs map[string]picks.Contribution) float64 {
	weights := contract.GlitchWeights()
	sum := 0.0
	for name, c := range sigs {
		sum += weights[name] * c.Value
	}
	return sum
}

// chromeResonance compares the player's birthday to the game date on the
// day-of-year circle. Needs a birthday; props without one log NO_DATA.
func chromeResonance(in Inputs) picks.Contribution {
	if in.PlayerBirthday.IsZero() || in.Cand.StartTime.IsZero() {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", nil)}
	}
	bdoy := float64(in.PlayerBirthday.YearDay())
	gdoy := float64(in.Cand.StartTime.YearDay())
	dist := math.Abs(bdoy - gdoy)
	if dist > 182.5 {
		dist = 365 - dist
	}
	raw := map[string]interface{}{"birthday_doy": bdoy, "game_doy": gdoy, "distance": dist}
	// Resonance peaks when the dates align or oppose on the circle.
	if dist <= 3 {
		return picks.Contribution{
			Value: 1.0, Triggered: true,
			Reasons:    []string{"Chrome resonance: birthday aligned with game date"},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	if dist >= 179.5 {
		return picks.Contribution{
			Value: 0.5, Triggered: true,
			Reasons:    []string{"Chrome resonance: birthday opposition"},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// voidMoon penalizes action during a void-of-course moon window.
func voidMoon(in Inputs) picks.Contribution {
	status := statusOf(in.Moon.Meta)
	if status != "SUCCESS" && status != "FALLBACK" {
		return picks.Contribution{Provenance: external(in.Moon.Meta, nil)}
	}
	raw := map[string]interface{}{"void_of_course": in.Moon.Value.VoidOfCourse}
	if in.Moon.Value.VoidOfCourse {
		return picks.Contribution{
			Value: -1.0, Triggered: true,
			Reasons:    []string{"Void-of-course moon window"},
			Provenance: external(in.Moon.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Moon.Meta, raw)}
}

// noosphere converts search velocity into hive-mind attention.
func noosphere(in Inputs) picks.Contribution {
	status := statusOf(in.Trend.Meta)
	if status != "SUCCESS" {
		return picks.Contribution{Provenance: external(in.Trend.Meta, nil)}
	}
	v := in.Trend.Value.Velocity
	raw := map[string]interface{}{"velocity": v}
	if v >= 2.0 {
		return picks.Contribution{
			Value: contract.Clamp((v-1)/3.0, 0, 1), Triggered: true,
			Reasons:    []string{fmt.Sprintf("Noosphere surge: %.1fx search velocity", v)},
			Provenance: external(in.Trend.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Trend.Meta, raw)}
}

// hurstSignal runs rescaled-range analysis over the line history. Persistent
// series (H > 0.5) suggest a trending line. Requires at least ten snapshots.
func hurstSignal(in Inputs) picks.Contribution {
	if len(in.LineHistory) < contract.HurstMinSnapshots {
		return picks.Contribution{Provenance: picks.Internal("NO_DATA", map[string]interface{}{
			"snapshots": len(in.LineHistory), "required": contract.HurstMinSnapshots,
		}), Reasons: []string{fmt.Sprintf("Hurst needs %d snapshots, have %d", contract.HurstMinSnapshots, len(in.LineHistory))}}
	}
	h := hurstExponent(in.LineHistory)
	raw := map[string]interface{}{"hurst": h, "snapshots": len(in.LineHistory)}
	switch {
	case h >= 0.65:
		return picks.Contribution{
			Value: contract.Clamp((h-0.5)*2, 0, 1), Triggered: true,
			Reasons:    []string{fmt.Sprintf("Persistent line trend (H=%.2f)", h)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	case h <= 0.35:
		return picks.Contribution{
			Value: -contract.Clamp((0.5-h)*2, 0, 1), Triggered: true,
			Reasons:    []string{fmt.Sprintf("Mean-reverting line (H=%.2f)", h)},
			Provenance: picks.Internal("SUCCESS", raw),
		}
	}
	return picks.Contribution{Provenance: picks.Internal("SUCCESS", raw)}
}

// hurstExponent estimates H by rescaled range over halving windows.
func hurstExponent(series []float64) float64 {
	n := len(series)
	var logRS, logN []float64
	for size := n; size >= 8; size /= 2 {
		chunks := n / size
		rsSum, rsCount := 0.0, 0
		for c := 0; c < chunks; c++ {
			chunk := series[c*size : (c+1)*size]
			rs := rescaledRange(chunk)
			if rs > 0 {
				rsSum += rs
				rsCount++
			}
		}
		if rsCount > 0 {
			logRS = append(logRS, math.Log(rsSum/float64(rsCount)))
			logN = append(logN, math.Log(float64(size)))
		}
	}
	if len(logRS) < 2 {
		return 0.5
	}
	return slope(logN, logRS)
}

func rescaledRange(chunk []float64) float64 {
	m := mean(chunk)
	var cum, minC, maxC, ss float64
	for _, v := range chunk {
		d := v - m
		cum += d
		if cum < minC {
			minC = cum
		}
		if cum > maxC {
			maxC = cum
		}
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(chunk)))
	if std == 0 {
		return 0
	}
	return (maxC - minC) / std
}

func slope(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var num, den float64
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return 0.5
	}
	return num / den
}

// kpSignal reacts to geomagnetic storms.
func kpSignal(in Inputs) picks.Contribution {
	status := statusOf(in.Kp.Meta)
	if status != "SUCCESS" {
		return picks.Contribution{Provenance: external(in.Kp.Meta, nil)}
	}
	kp := in.Kp.Value.Kp
	raw := map[string]interface{}{"kp": kp}
	if kp >= 5.0 {
		return picks.Contribution{
			Value: contract.Clamp((kp-4)/5.0, 0, 1), Triggered: true,
			Reasons:    []string{fmt.Sprintf("Geomagnetic storm Kp %.1f", kp)},
			Provenance: external(in.Kp.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Kp.Meta, raw)}
}

// benfordSignal tests the first-digit distribution of every book line for
// the event against Benford's law. Requires at least ten unique values
// aggregated across books.
func benfordSignal(in Inputs) picks.Contribution {
	status := statusOf(in.Board.Meta)
	if status != "SUCCESS" {
		return picks.Contribution{Provenance: external(in.Board.Meta, nil)}
	}
	uniques := map[float64]bool{}
	var values []float64
	for _, q := range in.Board.Value.Quotes {
		if q.Line != 0 && !uniques[q.Line] {
			uniques[q.Line] = true
			values = append(values, q.Line)
		}
	}
	if len(values) < contract.BenfordMinUniques {
		return picks.Contribution{
			Reasons: []string{fmt.Sprintf("Benford needs %d unique values, have %d", contract.BenfordMinUniques, len(values))},
			Provenance: picks.External(in.Board.Meta.Provider, "NO_DATA", in.Board.Meta.CallProof(), map[string]interface{}{
				"unique_values": len(values), "required": contract.BenfordMinUniques,
			}),
		}
	}
	chi := benfordChiSquare(values)
	raw := map[string]interface{}{"chi_square": chi, "unique_values": len(values)}
	// 15.51 is the 95th percentile of chi-square with 8 degrees of freedom.
	if chi > 15.51 {
		return picks.Contribution{
			Value: contract.Clamp((chi-15.51)/20.0, 0, 1), Triggered: true,
			Reasons:    []string{fmt.Sprintf("Benford anomaly on line board (chi2=%.1f)", chi)},
			Provenance: external(in.Board.Meta, raw),
		}
	}
	return picks.Contribution{Provenance: external(in.Board.Meta, raw)}
}

func benfordChiSquare(values []float64) float64 {
	counts := make([]float64, 9)
	total := 0.0
	for _, v := range values {
		d := firstDigit(v)
		if d >= 1 && d <= 9 {
			counts[d-1]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	chi := 0.0
	for d := 1; d <= 9; d++ {
		expected := total * math.Log10(1+1/float64(d))
		diff := counts[d-1] - expected
		chi += diff * diff / expected
	}
	return chi
}

func firstDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	for v < 1 {
		v *= 10
	}
	return int(v)
}
