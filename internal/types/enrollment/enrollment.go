package enrollment

import (
	"time"

	"challengeHubAPI/internal/progress"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
}

// ProgressResponse is what the participant challenge page renders: the
// snapshot plus the streak-bar position of today.
type ProgressResponse struct {
	ChallengeID uuid.UUID         `json:"challenge_id"`
	Cadence     progress.Cadence  `json:"cadence"`
	TodayIndex  int               `json:"today_index"`
	Progress    progress.Snapshot `json:"progress"`
}

// Leaderboard is the public ranking for one challenge, with the caller's own
// position surfaced separately so the client can pin it.
type Leaderboard struct {
	Entries           []*progress.RankedParticipant `json:"entries"`
	UserPosition      *progress.RankedParticipant   `json:"user_position,omitempty"`
	TotalParticipants int                           `json:"total_participants"`
}
