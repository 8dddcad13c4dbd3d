package winner

import (
	"time"

	"github.com/google/uuid"
)

type Winner struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Rank        int       `json:"rank" db:"rank"`
	SelectedBy  uuid.UUID `json:"selected_by" db:"selected_by"`
	SelectedAt  time.Time `json:"selected_at" db:"selected_at"`
}

type WinnerWithProfile struct {
	Winner
	Username string  `json:"username" db:"username"`
	ImageURL *string `json:"image_url,omitempty" db:"image_url"`
}

type RecordWinnerRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Rank   int       `json:"rank"`
}
