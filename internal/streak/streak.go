// Package streak derives daily workout streaks from the last workout day.
// All comparisons are by calendar day in a fixed location.
package streak

import "time"

// Result is the outcome of evaluating one workout against the ledger.
type Result struct {
	Streak     int
	MissedDays int
	// Penalized is set when the workout ends a gap of one or more missed days.
	Penalized bool
	// FirstToday is false when the user already trained on the same day.
	FirstToday bool
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b in loc. It is negative when
// b lies on an earlier day than a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	a, b = a.In(loc), b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Evaluate computes the streak after a workout at now.
//
//   - no previous workout: 1
//   - previous workout today (or in the future): unchanged, at least 1
//   - previous workout yesterday: previous + 1
//   - older: 1, and the miss penalty applies
func Evaluate(last *time.Time, previous int, now time.Time, loc *time.Location) Result {
	if last == nil {
		return Result{Streak: 1, FirstToday: true}
	}

	days := DaysBetween(*last, now, loc)
	switch {
	case days <= 0:
		if previous < 1 {
			previous = 1
		}
		return Result{Streak: previous}
	case days == 1:
		return Result{Streak: previous + 1, FirstToday: true}
	default:
		return Result{Streak: 1, MissedDays: days - 1, Penalized: true, FirstToday: true}
	}
}

// SweepCutoff is the instant before which a last workout makes a streak
// stale at now: the start of yesterday in loc.
func SweepCutoff(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc).AddDate(0, 0, -1)
}

// IsStale reports whether more than one calendar day has passed since last.
func IsStale(last *time.Time, now time.Time, loc *time.Location) bool {
	if last == nil {
		return false
	}
	return DaysBetween(*last, now, loc) > 1
}

// NextMidnight returns the next local midnight strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc).AddDate(0, 0, 1)
}
