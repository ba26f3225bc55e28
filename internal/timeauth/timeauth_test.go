package timeauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseETDate(t *testing.T) {
	d, err := ParseETDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", FormatETDate(d))
	assert.Equal(t, 0, d.Hour())
	assert.Equal(t, "America/New_York", d.Location().String())

	_, err = ParseETDate("03/15/2026")
	assert.Error(t, err)
}

func TestWithinDayETEndExclusive(t *testing.T) {
	day, err := ParseETDate("2026-03-15")
	require.NoError(t, err)

	late := day.Add(23*time.Hour + 30*time.Minute)
	assert.True(t, WithinDayET(late, day))

	midnight := day.Add(24 * time.Hour)
	assert.False(t, WithinDayET(midnight, day))

	next := day.Add(24*time.Hour + 15*time.Minute)
	assert.False(t, WithinDayET(next, day))
}

func TestWithinDayETConvertsZones(t *testing.T) {
	day, err := ParseETDate("2026-03-15")
	require.NoError(t, err)

	// 2026-03-16 02:00 UTC is 22:00 ET on the 15th (EDT).
	utc := time.Date(2026, 3, 16, 2, 0, 0, 0, time.UTC)
	assert.True(t, WithinDayET(utc, day))

	// 2026-03-16 05:00 UTC is 01:00 ET on the 16th.
	utc = time.Date(2026, 3, 16, 5, 0, 0, 0, time.UTC)
	assert.False(t, WithinDayET(utc, day))
}

func TestDayBoundsET(t *testing.T) {
	day, err := ParseETDate("2026-07-04")
	require.NoError(t, err)
	start, end, err := DayBoundsET(day.Add(13 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, day, start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestFormatETTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 15, 23, 30, 0, 0, ETLocation())
	assert.Equal(t, "2026-03-15 23:30:00 ET", FormatETTimestamp(ts))
}
