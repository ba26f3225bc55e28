// Package contract holds the scoring constants: engine weights, boost caps,
// gate thresholds, tier rules. Every other package imports thresholds from
// here; a literal threshold anywhere else is a bug.
package contract

import "fmt"

// Engine weights. Locked; must sum to exactly 1.00.
const (
	WeightAI       = 0.25
	WeightResearch = 0.35
	WeightEsoteric = 0.15
	WeightJarvis   = 0.25
)

// Score scale.
const (
	ScoreMin        = 0.0
	ScoreMax        = 10.0
	NeutralBaseline = 5.0
	JarvisBaseline  = 4.5
)

// Context modifier cap, applied symmetrically.
const ContextModifierCap = 0.35

// Per-boost caps. Each boost is clamped at its point of application.
const (
	ConfluenceBoostCap       = 1.0
	HarmonicConvergenceBonus = 0.25
	JasonSimBoostCap         = 0.75
	SERPTotalBoostCap        = 1.0
	SERPSubBoostCap          = 0.30
	EnsembleAdjStep          = 0.5
	HookPenaltyFloor         = -0.5
	ExpertConsensusCap       = 0.5
	PropCorrelationCap       = 0.4
	TotalsCalibrationCap     = 0.4
	LiveAdjustmentCap        = 0.5
)

// TotalBoostCap caps the boost group (confluence + msrf_external + jason_sim
// + serp_total) as a whole. MSRF lives inside Jarvis; the external term must
// be zero in the current configuration.
const (
	TotalBoostCap          = 2.0
	JarvisMSRFComponentCap = 2.0
)

// Selection thresholds.
const (
	MinDisplayScore    = 6.5
	SilverFloor        = 7.0
	TitaniumEngineBar  = 8.0
	TitaniumEnginesMin = 3
)

// Gold-Star gate thresholds.
const (
	GoldStarAIMin       = 6.8
	GoldStarResearchMin = 5.5
	GoldStarJarvisMin   = 6.5
	GoldStarEsotericMin = 4.0
	GoldStarFinalMin    = 7.5
)

// Tier labels.
const (
	TierTitanium = "TITANIUM_SMASH"
	TierGoldStar = "GOLD_STAR"
	TierSilver   = "SILVER"
	TierStandard = "STANDARD"
)

// GLITCH aggregate weights. Documented sum is 1.20.
const (
	GlitchWeightChrome    = 0.25
	GlitchWeightVoid      = 0.20
	GlitchWeightNoosphere = 0.15
	GlitchWeightHurst     = 0.25
	GlitchWeightKp        = 0.25
	GlitchWeightBenford   = 0.10
)

// Data sufficiency floors for the statistical esoteric signals.
const (
	HurstMinSnapshots = 10
	BenfordMinUniques = 10
)

// Research engine thresholds.
const (
	SharpDivergenceMin  = 15.0 // money% minus ticket% in points
	LineVarianceMin     = 1.0  // cross-book max-min in line units
	PublicFadeTicketMin = 65.0
	RLMPublicPctMin     = 60.0
	RLMLineMoveMin      = 0.5
)

// Reconciliation tolerance for the closed-form aggregate.
const ReconcileTolerance = 0.02

// Learning-loop bounds.
const (
	GraderDecayPerDay     = 0.7
	GraderLookbackDays    = 14
	GraderMaxAdjustment   = 0.05
	TrapMaxSingleAdjust   = 0.05
	TrapMaxCumulative     = 0.15
	TrapCooldownHours     = 24
	TrapMaxTriggersWeekly = 3
)

// EngineWeights returns the locked base-engine weight map.
func EngineWeights() map[string]float64 {
	return map[string]float64{
		"ai":       WeightAI,
		"research": WeightResearch,
		"esoteric": WeightEsoteric,
		"jarvis":   WeightJarvis,
	}
}

// GlitchWeights returns the GLITCH sub-signal weight map.
func GlitchWeights() map[string]float64 {
	return map[string]float64{
		"chrome_resonance": GlitchWeightChrome,
		"void_moon":        GlitchWeightVoid,
		"noosphere":        GlitchWeightNoosphere,
		"hurst":            GlitchWeightHurst,
		"kp_index":         GlitchWeightKp,
		"benford":          GlitchWeightBenford,
	}
}

// ValidateContract asserts the locked relationships between constants.
// Called once at startup; a failure means the binary was built wrong.
func ValidateContract() error {
	sum := WeightAI + WeightResearch + WeightEsoteric + WeightJarvis
	if sum != 1.00 {
		return fmt.Errorf("contract: engine weights sum %.4f, want 1.00", sum)
	}
	glitch := GlitchWeightChrome + GlitchWeightVoid + GlitchWeightNoosphere +
		GlitchWeightHurst + GlitchWeightKp + GlitchWeightBenford
	if diff := glitch - 1.20; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("contract: GLITCH weights sum %.4f, want 1.20", glitch)
	}
	if MinDisplayScore >= ScoreMax || MinDisplayScore <= ScoreMin {
		return fmt.Errorf("contract: min display score %.2f outside scale", MinDisplayScore)
	}
	return nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds v to the 0-10 scale.
func ClampScore(v float64) float64 { return Clamp(v, ScoreMin, ScoreMax) }
