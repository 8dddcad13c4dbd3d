package challenge

import (
	"encoding/json"
	"time"

	"challengeHubAPI/internal/progress"

	"github.com/google/uuid"
)

type ProofType string

const (
	ProofText  ProofType = "text"
	ProofPhoto ProofType = "photo"
	ProofLink  ProofType = "link"
)

// Rules is the loosely-typed JSONB side channel on a challenge. The web
// clients write rewards/policy blobs here that the API only stores; the one
// field the backend interprets is the cadence override.
type Rules struct {
	Cadence           *progress.Cadence `json:"cadence,omitempty"`
	RequiredCheckIns  *int              `json:"required_check_ins,omitempty"`
	Rewards           json.RawMessage   `json:"rewards,omitempty"`
	Policy            json.RawMessage   `json:"policy,omitempty"`
	MonetizationRules json.RawMessage   `json:"monetization_rules,omitempty"`
}

type Challenge struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	CreatorID   uuid.UUID        `json:"creator_id" db:"creator_id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Cadence     progress.Cadence `json:"cadence" db:"cadence"`
	ProofType   ProofType        `json:"proof_type" db:"proof_type"`
	StartAt     time.Time        `json:"start_at" db:"start_at"`
	EndAt       time.Time        `json:"end_at" db:"end_at"`
	Rules       *Rules           `json:"rules,omitempty" db:"rules"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// EffectiveCadence resolves the dual cadence source once, here at the data
// boundary: a rules override wins over the column. The progress package only
// ever sees the resolved value.
func (c *Challenge) EffectiveCadence() progress.Cadence {
	if c.Rules != nil && c.Rules.Cadence != nil && *c.Rules.Cadence != "" {
		return *c.Rules.Cadence
	}
	return c.Cadence
}

// RequiredCheckIns returns the admin-configured winner threshold, 0 when the
// challenge has none.
func (c *Challenge) RequiredCheckIns() int {
	if c.Rules != nil && c.Rules.RequiredCheckIns != nil && *c.Rules.RequiredCheckIns > 0 {
		return *c.Rules.RequiredCheckIns
	}
	return 0
}

// Window builds the calculator input for this challenge.
func (c *Challenge) Window() *progress.Window {
	return &progress.Window{
		Cadence: c.EffectiveCadence(),
		StartAt: c.StartAt,
		EndAt:   c.EndAt,
	}
}

type CreateChallengeRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Cadence     progress.Cadence `json:"cadence"`
	ProofType   ProofType        `json:"proof_type"`
	StartAt     time.Time        `json:"start_at"`
	EndAt       time.Time        `json:"end_at"`
	Rules       *Rules           `json:"rules,omitempty"`
}

type UpdateChallengeRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Cadence     *progress.Cadence `json:"cadence,omitempty"`
	ProofType   *ProofType        `json:"proof_type,omitempty"`
	StartAt     *time.Time        `json:"start_at,omitempty"`
	EndAt       *time.Time        `json:"end_at,omitempty"`
	Rules       *Rules            `json:"rules,omitempty"`
}
