package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func participant(name string, completed, total int, joinedAt time.Time) RankedParticipant {
	pct := 0
	if total > 0 {
		pct = 100 * completed / total
	}
	return RankedParticipant{
		UserID:   uuid.New(),
		Username: name,
		JoinedAt: joinedAt,
		Snapshot: Snapshot{TotalDays: total, CompletedDays: completed, ProgressPercentage: pct},
	}
}

func TestRankOrdersByCompletionThenJoinTime(t *testing.T) {
	t1 := date(2025, time.March, 1, 9)
	t2 := date(2025, time.March, 1, 15)

	in := []RankedParticipant{
		participant("carol", 3, 5, date(2025, time.March, 2, 0)),
		participant("bob", 4, 5, t2),
		participant("alice", 4, 5, t1),
	}

	ranked := Rank(in)

	wantOrder := []string{"alice", "bob", "carol"}
	for i, want := range wantOrder {
		if ranked[i].Username != want {
			t.Fatalf("position %d = %s, want %s", i, ranked[i].Username, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", ranked[i].Username, ranked[i].Rank, i+1)
		}
	}

	// Input order untouched.
	if in[0].Username != "carol" || in[0].Rank != 0 {
		t.Error("Rank must not mutate its input")
	}
}

func TestRankNeverInverts(t *testing.T) {
	in := []RankedParticipant{
		participant("a", 1, 7, date(2025, time.March, 1, 0)),
		participant("b", 7, 7, date(2025, time.March, 1, 1)),
		participant("c", 4, 7, date(2025, time.March, 1, 2)),
		participant("d", 0, 7, date(2025, time.March, 1, 3)),
		participant("e", 4, 7, date(2025, time.March, 1, 4)),
	}

	ranked := Rank(in)
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Snapshot.ProgressPercentage > ranked[i-1].Snapshot.ProgressPercentage {
			t.Fatalf("participant %s (%d%%) ranked above %s (%d%%)",
				ranked[i-1].Username, ranked[i-1].Snapshot.ProgressPercentage,
				ranked[i].Username, ranked[i].Snapshot.ProgressPercentage)
		}
	}
}

func TestTopNTruncatesAfterTieBreak(t *testing.T) {
	t1 := date(2025, time.March, 1, 9)
	t2 := date(2025, time.March, 1, 15)

	in := []RankedParticipant{
		participant("late-80", 4, 5, t2),
		participant("early-80", 4, 5, t1),
		participant("sixty", 3, 5, date(2025, time.March, 1, 0)),
	}

	top := TopN(in, 2)
	if len(top) != 2 {
		t.Fatalf("TopN(2) returned %d entries", len(top))
	}
	if top[0].Username != "early-80" || top[1].Username != "late-80" {
		t.Errorf("tie broken wrong: got [%s %s], want earliest join first", top[0].Username, top[1].Username)
	}
}

func TestTopNBounds(t *testing.T) {
	if got := TopN(nil, 3); len(got) != 0 {
		t.Errorf("TopN on empty input returned %d entries", len(got))
	}

	in := []RankedParticipant{participant("solo", 1, 1, date(2025, time.March, 1, 0))}
	if got := TopN(in, 10); len(got) != 1 {
		t.Errorf("TopN larger than input returned %d entries", len(got))
	}
	if got := TopN(in, -1); len(got) != 0 {
		t.Errorf("negative n returned %d entries", len(got))
	}
}
