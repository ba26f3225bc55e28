package datasources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaUnknownProviderUnlimited(t *testing.T) {
	qa := NewQuotaAccountant()
	for i := 0; i < 100; i++ {
		assert.True(t, qa.Allow("statsapi"))
		qa.Record("statsapi")
	}
	daily, monthly := qa.Remaining("statsapi")
	assert.EqualValues(t, -1, daily)
	assert.EqualValues(t, -1, monthly)
}

func TestQuotaDailyExhaustion(t *testing.T) {
	qa := NewQuotaAccountant()
	qa.SetLimits("serp", QuotaLimits{Daily: 2, Monthly: 100})

	assert.True(t, qa.Allow("serp"))
	qa.Record("serp")
	assert.True(t, qa.Allow("serp"))
	qa.Record("serp")
	assert.False(t, qa.Allow("serp"))

	daily, monthly := qa.Remaining("serp")
	assert.EqualValues(t, 0, daily)
	assert.EqualValues(t, 98, monthly)
}

func TestQuotaMonthlyExhaustion(t *testing.T) {
	qa := NewQuotaAccountant()
	qa.SetLimits("finance", QuotaLimits{Monthly: 1})

	assert.True(t, qa.Allow("finance"))
	qa.Record("finance")
	assert.False(t, qa.Allow("finance"))

	daily, _ := qa.Remaining("finance")
	assert.EqualValues(t, -1, daily)
}

func TestQuotaDefaultsLoaded(t *testing.T) {
	qa := NewQuotaAccountant()
	daily, monthly := qa.Remaining("serp")
	assert.EqualValues(t, 100, daily)
	assert.EqualValues(t, 3000, monthly)
}
