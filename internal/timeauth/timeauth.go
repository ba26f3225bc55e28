// Package timeauth is the single authority for Eastern-Time day math.
// Every "today's games" filter in the engine uses the ET day window
// [start_of_day, start_of_day+24h), end-exclusive.
package timeauth

import (
	"fmt"
	"sync"
	"time"
)

const etZone = "America/New_York"

var (
	etOnce sync.Once
	etLoc  *time.Location

	// Fallback state for when the wall clock is unreachable. Guarded by fbMu.
	fbMu          sync.Mutex
	lastWallClock time.Time
	degraded      bool
)

// ETLocation returns the America/New_York location. Panics at startup if the
// tzdata is missing; the engine cannot run without it.
func ETLocation() *time.Location {
	etOnce.Do(func() {
		loc, err := time.LoadLocation(etZone)
		if err != nil {
			panic(fmt.Sprintf("timeauth: cannot load %s: %v", etZone, err))
		}
		etLoc = loc
	})
	return etLoc
}

// NowET returns the current time in ET. If the system clock read fails the
// last known wall clock is reused and the process is marked degraded.
func NowET() time.Time {
	now := time.Now()
	fbMu.Lock()
	if now.IsZero() {
		degraded = true
		now = lastWallClock
	} else {
		lastWallClock = now
	}
	fbMu.Unlock()
	return now.In(ETLocation())
}

// Degraded reports whether the clock fallback has ever engaged.
func Degraded() bool {
	fbMu.Lock()
	defer fbMu.Unlock()
	return degraded
}

// DayBoundsET returns the [start, end) ET window for the day containing t.
// t must be zone-aware; a zero-location time is a contract violation.
func DayBoundsET(t time.Time) (time.Time, time.Time, error) {
	if t.Location() == nil || t.Location() == time.UTC && t.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("timeauth: naive timestamp rejected")
	}
	et := t.In(ETLocation())
	start := time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, ETLocation())
	return start, start.Add(24 * time.Hour), nil
}

// ParseETDate parses a YYYY-MM-DD string as midnight ET of that day.
func ParseETDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, ETLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("timeauth: bad ET date %q: %w", s, err)
	}
	return t, nil
}

// WithinDayET reports whether ts falls inside the ET day containing day.
// End-exclusive: a game at exactly midnight of the next day is out.
func WithinDayET(ts, day time.Time) bool {
	start, end, err := DayBoundsET(day)
	if err != nil {
		return false
	}
	et := ts.In(ETLocation())
	return !et.Before(start) && et.Before(end)
}

// FormatETDate renders t as the YYYY-MM-DD of its ET day.
func FormatETDate(t time.Time) string {
	return t.In(ETLocation()).Format("2006-01-02")
}

// FormatETTimestamp renders t as a display timestamp in ET.
func FormatETTimestamp(t time.Time) string {
	return t.In(ETLocation()).Format("2006-01-02 15:04:05 ET")
}
