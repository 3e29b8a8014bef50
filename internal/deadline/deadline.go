package deadline

import (
	"math"
	"time"
)

// AddBusinessDays advances start one calendar day at a time and counts only
// Monday through Friday until n business days have been counted.
// The wall-clock time of start is preserved; n <= 0 returns start unchanged.
func AddBusinessDays(start time.Time, n int) time.Time {
	result := start
	count := 0
	for count < n {
		result = result.AddDate(0, 0, 1)
		if IsBusinessDay(result) {
			count++
		}
	}
	return result
}

// IsBusinessDay reports whether t falls on Monday through Friday in its own location.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// BusinessDaysBetween counts the weekdays in (from, to]. It returns 0 when to is not after from.
func BusinessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	count := 0
	for cursor := from.AddDate(0, 0, 1); !cursor.After(to); cursor = cursor.AddDate(0, 0, 1) {
		if IsBusinessDay(cursor) {
			count++
		}
	}
	return count
}

// IsLate reports whether a pending pickup has passed its deadline.
// Only the PENDING status can be late; delivered outputs never are.
func IsLate(pending bool, pickupDeadline, now time.Time) bool {
	if !pending || pickupDeadline.IsZero() {
		return false
	}
	return pickupDeadline.Before(now)
}

// DaysUntil returns the number of days from now until t, rounded up.
// Negative values mean t is in the past.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
