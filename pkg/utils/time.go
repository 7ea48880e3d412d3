package utils

import "time"

// TimeNowUTC returns the current time in UTC, the timezone used for all
// stored timestamps and the experiment-day arithmetic.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// DaysSince returns whole days elapsed since start, clamped to [0, max].
func DaysSince(start, now time.Time, max int) int {
	days := int(now.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	if days > max {
		return max
	}
	return days
}
