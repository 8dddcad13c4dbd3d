package invite

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeInvite is a shareable join session: a deep link plus a QR token
// that expires after a few days.
type ChallengeInvite struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	CreatedBy   uuid.UUID `json:"created_by" db:"created_by"`
	QrToken     string    `json:"qr_token" db:"qr_token"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type InviteSessionResponse struct {
	InviteID     uuid.UUID `json:"inviteID"`
	ShareLink    string    `json:"shareLink"`
	QrToken      string    `json:"qrToken"`
	QrCodeBase64 string    `json:"qrCodeBase64"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
