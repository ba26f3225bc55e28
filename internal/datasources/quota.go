package datasources

import (
	"sync"

	"github.com/peterostrander2/ai-betting-backend/internal/timeauth"
)

// QuotaLimits defines the daily and monthly call budgets for one provider.
// Zero means unlimited on that axis.
type QuotaLimits struct {
	Daily   int64
	Monthly int64
}

// quotaState tracks rolling counters keyed to the ET calendar.
type quotaState struct {
	limits    QuotaLimits
	day       string // ET date of the daily counter
	month     string // ET YYYY-MM of the monthly counter
	dailyUsed int64
	monthUsed int64
}

// QuotaAccountant enforces per-provider daily and monthly quotas with
// rollover on the ET calendar, not UTC.
type QuotaAccountant struct {
	mu    sync.Mutex
	state map[string]*quotaState
}

// DefaultQuotas reflect the free tiers of the wired providers. Providers
// absent from this table are unlimited.
var DefaultQuotas = map[string]QuotaLimits{
	"serp":    {Daily: 100, Monthly: 3000},
	"trends":  {Daily: 500, Monthly: 0},
	"weather": {Daily: 1000, Monthly: 0},
	"news":    {Daily: 500, Monthly: 0},
	"finance": {Daily: 250, Monthly: 5000},
	"odds":    {Daily: 0, Monthly: 20000},
}

// NewQuotaAccountant builds an accountant from the default table.
func NewQuotaAccountant() *QuotaAccountant {
	qa := &QuotaAccountant{state: make(map[string]*quotaState)}
	for name, lim := range DefaultQuotas {
		qa.state[name] = &quotaState{limits: lim}
	}
	return qa
}

// SetLimits overrides the limits for one provider.
func (qa *QuotaAccountant) SetLimits(provider string, lim QuotaLimits) {
	qa.mu.Lock()
	defer qa.mu.Unlock()
	st, ok := qa.state[provider]
	if !ok {
		st = &quotaState{}
		qa.state[provider] = st
	}
	st.limits = lim
}

func (qa *QuotaAccountant) roll(st *quotaState) {
	now := timeauth.NowET()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")
	if st.day != day {
		st.day = day
		st.dailyUsed = 0
	}
	if st.month != month {
		st.month = month
		st.monthUsed = 0
	}
}

// Allow reports whether a call to provider fits within both budgets.
func (qa *QuotaAccountant) Allow(provider string) bool {
	qa.mu.Lock()
	defer qa.mu.Unlock()
	st, ok := qa.state[provider]
	if !ok {
		return true
	}
	qa.roll(st)
	if st.limits.Daily > 0 && st.dailyUsed >= st.limits.Daily {
		return false
	}
	if st.limits.Monthly > 0 && st.monthUsed >= st.limits.Monthly {
		return false
	}
	return true
}

// Record counts one issued call.
func (qa *QuotaAccountant) Record(provider string) {
	qa.mu.Lock()
	defer qa.mu.Unlock()
	st, ok := qa.state[provider]
	if !ok {
		return
	}
	qa.roll(st)
	st.dailyUsed++
	st.monthUsed++
}

// Remaining returns calls left today and this month (-1 for unlimited).
func (qa *QuotaAccountant) Remaining(provider string) (daily, monthly int64) {
	qa.mu.Lock()
	defer qa.mu.Unlock()
	st, ok := qa.state[provider]
	if !ok {
		return -1, -1
	}
	qa.roll(st)
	daily, monthly = -1, -1
	if st.limits.Daily > 0 {
		daily = st.limits.Daily - st.dailyUsed
	}
	if st.limits.Monthly > 0 {
		monthly = st.limits.Monthly - st.monthUsed
	}
	return daily, monthly
}
