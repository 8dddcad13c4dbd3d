package progress

import "time"

const day = 24 * time.Hour

// IsActive reports whether now falls inside the inclusive [startAt, endAt]
// window. Malformed windows (zero or reversed dates) are never active.
func IsActive(now, startAt, endAt time.Time) bool {
	if startAt.IsZero() || endAt.IsZero() || endAt.Before(startAt) {
		return false
	}
	return !now.Before(startAt) && !now.After(endAt)
}

func IsEnded(now, endAt time.Time) bool {
	return !endAt.IsZero() && now.After(endAt)
}

func IsNotStarted(now, startAt time.Time) bool {
	return startAt.IsZero() || now.Before(startAt)
}

// TotalDaysInclusive counts calendar days in [startAt, endAt] counting both
// boundaries, so startAt == endAt is a one-day challenge. Reversed or
// zero-value ranges clamp to 1.
func TotalDaysInclusive(startAt, endAt time.Time) int {
	if startAt.IsZero() || endAt.IsZero() || endAt.Before(startAt) {
		return 1
	}
	return int(endAt.Sub(startAt)/day) + 1
}

// DayIndexOf maps a timestamp to its 1-based day number relative to startAt,
// used to place submissions on the streak bar. Timestamps before startAt
// clamp to day 1.
func DayIndexOf(ts, startAt time.Time) int {
	if ts.Before(startAt) {
		return 1
	}
	return int(ts.Sub(startAt)/day) + 1
}
