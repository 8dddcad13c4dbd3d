// Package progress computes completion state for challenge enrollments.
// Everything in here is pure: callers load the challenge window and the
// participant's submissions, capture "now" once, and get back a deterministic
// snapshot. The package never touches the database or the wall clock.
package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Cadence string

const (
	CadenceDaily          Cadence = "daily"
	CadenceEndOfChallenge Cadence = "end_of_challenge"
)

var (
	ErrNilWindow              = errors.New("nil challenge window")
	ErrUnknownCadence         = errors.New("unknown cadence")
	ErrUnknownEligibilityMode = errors.New("unknown eligibility mode")
)

// Window is the slice of a challenge the calculator needs: the resolved
// cadence and the inclusive active range. Cadence resolution (column vs
// rules override) happens at the data-access layer, never here.
type Window struct {
	Cadence Cadence
	StartAt time.Time
	EndAt   time.Time
}

// Submission is the canonical proof record. Both the proofs table and the
// legacy check_ins table are adapted into this shape before any calculation.
type Submission struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
	Text      *string   `json:"text,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	LinkURL   *string   `json:"link_url,omitempty"`
}

// Snapshot is one participant's completion state at a single instant.
type Snapshot struct {
	TotalDays             int         `json:"total_days"`
	CompletedDays         int         `json:"completed_days"`
	ProgressPercentage    int         `json:"progress_percentage"`
	CanSubmitToday        bool        `json:"can_submit_today"`
	HasExistingSubmission bool        `json:"has_existing_submission"`
	LatestSubmission      *Submission `json:"latest_submission,omitempty"`
}
