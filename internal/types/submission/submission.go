package submission

import (
	"time"

	"challengeHubAPI/internal/types/challenge"

	"github.com/google/uuid"
)

// Proof is the authoritative submission store. Replacing a proof flips
// is_active on the old row instead of deleting it, so the history survives.
type Proof struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	EnrollmentID uuid.UUID           `json:"enrollment_id" db:"enrollment_id"`
	Type         challenge.ProofType `json:"type" db:"type"`
	Text         *string             `json:"text,omitempty" db:"text"`
	ImageURL     *string             `json:"image_url,omitempty" db:"image_url"`
	LinkURL      *string             `json:"link_url,omitempty" db:"link_url"`
	IsActive     bool                `json:"is_active" db:"is_active"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
}

// CheckIn is the legacy submission table from before proofs carried content.
// Still read for old enrollments, never written to.
type CheckIn struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EnrollmentID uuid.UUID `json:"enrollment_id" db:"enrollment_id"`
	CheckedAt    time.Time `json:"checked_at" db:"checked_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type CreateProofRequest struct {
	Text     *string `json:"text,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	LinkURL  *string `json:"link_url,omitempty"`
}
