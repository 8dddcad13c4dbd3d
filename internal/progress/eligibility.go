package progress

import "fmt"

// EligibilityMode names the two winner-eligibility policies that coexist in
// the product: the public leaderboard counts anyone who participated at all,
// while the admin winner screen can require a configured check-in threshold.
// Call sites declare which one they mean instead of inheriting a default.
type EligibilityMode string

const (
	ModeAnyParticipation EligibilityMode = "any_participation"
	ModeThresholdMet     EligibilityMode = "threshold_met"
)

type EligibilityPolicy struct {
	Mode EligibilityMode
	// RequiredCheckIns only applies to ModeThresholdMet. Zero or negative
	// means "complete everything": the snapshot's TotalDays, which is the
	// full day count for daily challenges and 1 for end-of-challenge ones.
	RequiredCheckIns int
}

// Evaluate decides whether a participant with the given snapshot may be
// considered for winner selection. A nil snapshot is never eligible.
func (p EligibilityPolicy) Evaluate(snap *Snapshot) (bool, error) {
	if snap == nil {
		return false, nil
	}

	switch p.Mode {
	case ModeAnyParticipation:
		return snap.CompletedDays > 0, nil
	case ModeThresholdMet:
		required := p.RequiredCheckIns
		if required <= 0 {
			required = snap.TotalDays
		}
		return snap.CompletedDays >= required, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownEligibilityMode, p.Mode)
	}
}
