// Package common provides shared utilities for etfscope
package common

import "time"

// DayFormat is the calendar-date layout used for cache keys and API params.
const DayFormat = "2006-01-02"

// easternLocation is the US/Eastern timezone driving the remote API's
// business-day boundary (handles EST/EDT automatically).
var easternLocation = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback to EST fixed zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// CacheDay returns the cache-day key for t: the most recent US business day,
// formatted as YYYY-MM-DD in US/Eastern. Weekends and the configured holiday
// set are stepped over. All cached artifacts for one session share this key.
func CacheDay(t time.Time, holidays map[string]bool) string {
	day := t.In(easternLocation)
	for !isBusinessDay(day, holidays) {
		day = day.AddDate(0, 0, -1)
	}
	return day.Format(DayFormat)
}

func isBusinessDay(t time.Time, holidays map[string]bool) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays[t.Format(DayFormat)]
}
