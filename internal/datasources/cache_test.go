package datasources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsOrderAndCaseInsensitive(t *testing.T) {
	a := Key("Odds", "board", map[string]string{"sport": "NBA", "date": "2026-03-15"})
	b := Key("odds", "BOARD", map[string]string{"date": "2026-03-15", "sport": "nba"})
	assert.Equal(t, a, b)

	c := Key("odds", "board", map[string]string{"sport": "NFL", "date": "2026-03-15"})
	assert.NotEqual(t, a, c)
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache()
	key := Key("odds", "odds_board", map[string]string{"sport": "nba"})
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, "odds_board", []string{"quote"})
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"quote"}, got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache()
	c.SetTTL("odds_board", 10*time.Millisecond)
	c.Set("k", "odds_board", 1)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCacheTTLFor(t *testing.T) {
	c := NewCache()
	assert.Equal(t, 12*time.Hour, c.TTLFor("serp"))
	assert.Equal(t, 5*time.Minute, c.TTLFor("unknown_route"))

	c.SetTTL("serp", time.Minute)
	assert.Equal(t, time.Minute, c.TTLFor("serp"))
}

func TestCacheZeroTTLDisablesRoute(t *testing.T) {
	c := NewCache()
	c.SetTTL("odds_board", 0)
	c.Set("k", "odds_board", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestPurgeExpired(t *testing.T) {
	c := NewCache()
	c.SetTTL("fast", 5*time.Millisecond)
	c.Set("dead", "fast", 1)
	c.Set("live", "odds_board", 1)

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, 1, c.PurgeExpired())
	assert.Equal(t, 1, c.Len())
}
