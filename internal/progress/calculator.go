package progress

import (
	"fmt"
	"math"
	"time"
)

// Calculator buckets submissions into calendar days using a fixed location.
// The source data carries absolute timestamps; which wall-clock day a
// timestamp belongs to depends on the timezone, so the deployment picks one
// (CHALLENGE_TZ, UTC by default) instead of silently using server-local time.
type Calculator struct {
	loc *time.Location
}

func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Calculate produces the completion snapshot for one enrollment. It filters
// inactive submissions itself, so callers can pass the full history including
// replaced proofs. A malformed window degrades to a one-day, not-active
// challenge with zero progress; only a nil window or an unrecognized cadence
// is a caller bug worth an error.
func (c *Calculator) Calculate(w *Window, submissions []Submission, now time.Time) (*Snapshot, error) {
	if w == nil {
		return nil, ErrNilWindow
	}

	active := make([]Submission, 0, len(submissions))
	for _, s := range submissions {
		if s.IsActive {
			active = append(active, s)
		}
	}

	snap := &Snapshot{}

	switch w.Cadence {
	case CadenceDaily:
		snap.TotalDays = TotalDaysInclusive(w.StartAt, w.EndAt)

		days := make(map[string]bool, len(active))
		for _, s := range active {
			days[c.dayKey(s.CreatedAt)] = true
		}
		snap.CompletedDays = len(days)
		if snap.CompletedDays > snap.TotalDays {
			snap.CompletedDays = snap.TotalDays
		}

		snap.HasExistingSubmission = days[c.dayKey(now)]
		snap.CanSubmitToday = IsActive(now, w.StartAt, w.EndAt) && !snap.HasExistingSubmission

	case CadenceEndOfChallenge:
		snap.TotalDays = 1
		if len(active) > 0 {
			snap.CompletedDays = 1
		}
		snap.HasExistingSubmission = snap.CompletedDays == 1
		// Re-submission replaces the previous proof, so submitting stays
		// allowed for the whole active window.
		snap.CanSubmitToday = IsActive(now, w.StartAt, w.EndAt)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCadence, w.Cadence)
	}

	if snap.TotalDays > 0 {
		pct := int(math.Round(100 * float64(snap.CompletedDays) / float64(snap.TotalDays)))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		snap.ProgressPercentage = pct
	}

	snap.LatestSubmission = latest(active)

	return snap, nil
}

// Location returns the day-bucketing timezone the calculator was built with.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

func (c *Calculator) dayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

func latest(subs []Submission) *Submission {
	var out *Submission
	for i := range subs {
		if out == nil || subs[i].CreatedAt.After(out.CreatedAt) {
			out = &subs[i]
		}
	}
	if out == nil {
		return nil
	}
	cp := *out
	return &cp
}
