package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/types/challenge"
	"challengeHubAPI/internal/types/enrollment"
	"challengeHubAPI/internal/types/submission"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotEnrolled    = errors.New("user is not enrolled in this challenge")
	ErrChallengeEnded = errors.New("challenge has already ended")
)

// EnrollmentService owns participation: joining, progress snapshots and the
// public leaderboard. It is the only place that reads submissions out of
// storage, merging the proofs table with the legacy check_ins table into the
// canonical shape before any calculation.
type EnrollmentService struct {
	db           *pgxpool.Pool
	challengeSvc *ChallengeService
	calc         *progress.Calculator
}

func NewEnrollmentService(db *pgxpool.Pool, challengeSvc *ChallengeService, calc *progress.Calculator) *EnrollmentService {
	return &EnrollmentService{
		db:           db,
		challengeSvc: challengeSvc,
		calc:         calc,
	}
}

func (s *EnrollmentService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID, now time.Time) (*enrollment.Enrollment, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if progress.IsEnded(now, ch.EndAt) {
		return nil, ErrChallengeEnded
	}

	e := &enrollment.Enrollment{}
	// Joining twice is a no-op returning the existing row.
	query := `
	INSERT INTO enrollments (id, user_id, challenge_id, joined_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, challenge_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING id, user_id, challenge_id, joined_at
	`
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, challengeID, now).Scan(
		&e.ID, &e.UserID, &e.ChallengeID, &e.JoinedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	return e, nil
}

func (s *EnrollmentService) GetEnrollment(ctx context.Context, clerkID string, challengeID uuid.UUID) (*enrollment.Enrollment, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	e := &enrollment.Enrollment{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, challenge_id, joined_at
		FROM enrollments WHERE user_id = $1 AND challenge_id = $2
	`, userID, challengeID).Scan(&e.ID, &e.UserID, &e.ChallengeID, &e.JoinedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return e, nil
}

// GetProgress computes the caller's snapshot for the participant page.
func (s *EnrollmentService) GetProgress(ctx context.Context, clerkID string, challengeID uuid.UUID, now time.Time) (*enrollment.ProgressResponse, error) {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	e, err := s.GetEnrollment(ctx, clerkID, challengeID)
	if err != nil {
		return nil, err
	}

	snap, err := s.SnapshotFor(ctx, ch, e.ID, now)
	if err != nil {
		return nil, err
	}

	return &enrollment.ProgressResponse{
		ChallengeID: ch.ID,
		Cadence:     ch.EffectiveCadence(),
		TodayIndex:  progress.DayIndexOf(now, ch.StartAt),
		Progress:    *snap,
	}, nil
}

// SnapshotFor loads one enrollment's submission history and runs the
// calculator over it. "now" is the single time capture of the request.
func (s *EnrollmentService) SnapshotFor(ctx context.Context, ch *challenge.Challenge, enrollmentID uuid.UUID, now time.Time) (*progress.Snapshot, error) {
	subs, err := s.loadSubmissions(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	snap, err := s.calc.Calculate(ch.Window(), subs, now)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate progress: %w", err)
	}
	return snap, nil
}

// ListParticipants returns every enrollment of a challenge with its snapshot,
// unranked. Winner selection and the leaderboard both build on this.
func (s *EnrollmentService) ListParticipants(ctx context.Context, challengeID uuid.UUID, now time.Time) ([]progress.RankedParticipant, error) {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.user_id, e.joined_at, u.username, u.image_url
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.challenge_id = $1
		ORDER BY e.joined_at ASC
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	type row struct {
		enrollmentID uuid.UUID
		participant  progress.RankedParticipant
	}
	var members []row
	for rows.Next() {
		var r row
		var imageURL *string
		if err := rows.Scan(&r.enrollmentID, &r.participant.UserID, &r.participant.JoinedAt,
			&r.participant.Username, &imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		r.participant.ImageURL = imageURL
		members = append(members, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subsByEnrollment, err := s.loadChallengeSubmissions(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	out := make([]progress.RankedParticipant, 0, len(members))
	for _, m := range members {
		snap, err := s.calc.Calculate(ch.Window(), subsByEnrollment[m.enrollmentID], now)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate progress: %w", err)
		}
		m.participant.Snapshot = *snap
		out = append(out, m.participant)
	}

	return out, nil
}

// GetLeaderboard is the public ranking: anyone who participated at all,
// ordered by the ranker.
func (s *EnrollmentService) GetLeaderboard(ctx context.Context, clerkID string, challengeID uuid.UUID, now time.Time) (*enrollment.Leaderboard, error) {
	participants, err := s.ListParticipants(ctx, challengeID, now)
	if err != nil {
		return nil, err
	}

	policy := progress.EligibilityPolicy{Mode: progress.ModeAnyParticipation}
	eligible := make([]progress.RankedParticipant, 0, len(participants))
	for _, p := range participants {
		ok, err := policy.Evaluate(&p.Snapshot)
		if err != nil {
			return nil, err
		}
		if ok {
			eligible = append(eligible, p)
		}
	}

	ranked := progress.Rank(eligible)

	board := &enrollment.Leaderboard{
		Entries:           make([]*progress.RankedParticipant, 0, len(ranked)),
		TotalParticipants: len(participants),
	}

	var callerID uuid.UUID
	if id, err := resolveUserID(ctx, s.db, clerkID); err == nil {
		callerID = id
	}

	for i := range ranked {
		entry := ranked[i]
		board.Entries = append(board.Entries, &entry)
		if entry.UserID == callerID {
			board.UserPosition = &entry
		}
	}

	return board, nil
}

// checkInToSubmission adapts a legacy check-in row to the canonical shape.
// Check-ins carry no content and no soft-delete flag; they count as active
// on the day they were checked.
func checkInToSubmission(c submission.CheckIn) progress.Submission {
	return progress.Submission{
		ID:        c.ID,
		CreatedAt: c.CheckedAt,
		IsActive:  true,
	}
}

// loadSubmissions adapts both submission stores for one enrollment.
func (s *EnrollmentService) loadSubmissions(ctx context.Context, enrollmentID uuid.UUID) ([]progress.Submission, error) {
	var subs []progress.Submission

	rows, err := s.db.Query(ctx, `
		SELECT id, created_at, is_active, text, image_url, link_url
		FROM proofs WHERE enrollment_id = $1
		ORDER BY created_at ASC
	`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proofs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub progress.Submission
		if err := rows.Scan(&sub.ID, &sub.CreatedAt, &sub.IsActive, &sub.Text, &sub.ImageURL, &sub.LinkURL); err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	legacy, err := s.db.Query(ctx, `
		SELECT id, enrollment_id, checked_at, created_at
		FROM check_ins WHERE enrollment_id = $1
	`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-ins: %w", err)
	}
	defer legacy.Close()

	for legacy.Next() {
		var c submission.CheckIn
		if err := legacy.Scan(&c.ID, &c.EnrollmentID, &c.CheckedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		subs = append(subs, checkInToSubmission(c))
	}

	return subs, legacy.Err()
}

// loadChallengeSubmissions fetches every participant's history in two queries
// instead of one per enrollment.
func (s *EnrollmentService) loadChallengeSubmissions(ctx context.Context, challengeID uuid.UUID) (map[uuid.UUID][]progress.Submission, error) {
	out := make(map[uuid.UUID][]progress.Submission)

	rows, err := s.db.Query(ctx, `
		SELECT p.enrollment_id, p.id, p.created_at, p.is_active, p.text, p.image_url, p.link_url
		FROM proofs p
		JOIN enrollments e ON e.id = p.enrollment_id
		WHERE e.challenge_id = $1
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proofs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var enrollmentID uuid.UUID
		var sub progress.Submission
		if err := rows.Scan(&enrollmentID, &sub.ID, &sub.CreatedAt, &sub.IsActive, &sub.Text, &sub.ImageURL, &sub.LinkURL); err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		out[enrollmentID] = append(out[enrollmentID], sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	legacy, err := s.db.Query(ctx, `
		SELECT c.id, c.enrollment_id, c.checked_at, c.created_at
		FROM check_ins c
		JOIN enrollments e ON e.id = c.enrollment_id
		WHERE e.challenge_id = $1
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-ins: %w", err)
	}
	defer legacy.Close()

	for legacy.Next() {
		var c submission.CheckIn
		if err := legacy.Scan(&c.ID, &c.EnrollmentID, &c.CheckedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		out[c.EnrollmentID] = append(out[c.EnrollmentID], checkInToSubmission(c))
	}

	return out, legacy.Err()
}
