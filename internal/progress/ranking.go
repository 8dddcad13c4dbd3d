package progress

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RankedParticipant pairs a participant with their snapshot for winner
// selection and leaderboard display.
type RankedParticipant struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	ImageURL *string   `json:"image_url,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	Snapshot Snapshot  `json:"progress"`
	Rank     int       `json:"rank"`
}

// Rank orders participants descending by completed days (equivalently by
// progress percentage, since every participant of one challenge shares the
// same total), breaking ties by earliest join time. The sort is stable and
// never random, so repeated calls with the same input produce the same
// order. Ranks are assigned 1-based; the input slice is not modified.
func Rank(participants []RankedParticipant) []RankedParticipant {
	out := make([]RankedParticipant, len(participants))
	copy(out, participants)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Snapshot.CompletedDays != out[j].Snapshot.CompletedDays {
			return out[i].Snapshot.CompletedDays > out[j].Snapshot.CompletedDays
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})

	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// TopN ranks and truncates, used for "auto-select top 3" in the admin UI.
func TopN(participants []RankedParticipant, n int) []RankedParticipant {
	ranked := Rank(participants)
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
