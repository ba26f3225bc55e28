package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContract(t *testing.T) {
	require.NoError(t, ValidateContract())
}

func TestEngineWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range EngineWeights() {
		sum += w
	}
	assert.Equal(t, 1.00, sum)
}

func TestGlitchWeightsSum(t *testing.T) {
	sum := 0.0
	for _, w := range GlitchWeights() {
		sum += w
	}
	assert.InDelta(t, 1.20, sum, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.35, Clamp(0.9, -ContextModifierCap, ContextModifierCap))
	assert.Equal(t, -0.35, Clamp(-2, -ContextModifierCap, ContextModifierCap))
	assert.Equal(t, 0.1, Clamp(0.1, -ContextModifierCap, ContextModifierCap))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 10.0, ClampScore(14.2))
	assert.Equal(t, 0.0, ClampScore(-3))
	assert.Equal(t, 6.5, ClampScore(6.5))
}
