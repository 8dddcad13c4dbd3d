package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/types/winner"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotAParticipant = errors.New("selected user is not a participant of this challenge")

// WinnerService drives the admin winner-selection screen: eligible lists,
// "auto-select top N" and manual picks.
type WinnerService struct {
	db            *pgxpool.Pool
	challengeSvc  *ChallengeService
	enrollmentSvc *EnrollmentService
}

func NewWinnerService(db *pgxpool.Pool, challengeSvc *ChallengeService, enrollmentSvc *EnrollmentService) *WinnerService {
	return &WinnerService{
		db:            db,
		challengeSvc:  challengeSvc,
		enrollmentSvc: enrollmentSvc,
	}
}

// policyFor builds the eligibility policy the admin asked for. Threshold mode
// picks up the challenge's configured required check-ins; with none
// configured it falls back to full completion inside the evaluator.
func (s *WinnerService) policyFor(ctx context.Context, challengeID uuid.UUID, mode progress.EligibilityMode) (progress.EligibilityPolicy, error) {
	policy := progress.EligibilityPolicy{Mode: mode}
	if mode != progress.ModeThresholdMet {
		return policy, nil
	}

	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return policy, err
	}
	policy.RequiredCheckIns = ch.RequiredCheckIns()
	return policy, nil
}

// EligibleParticipants ranks everyone who passes the chosen policy.
func (s *WinnerService) EligibleParticipants(ctx context.Context, challengeID uuid.UUID, mode progress.EligibilityMode, now time.Time) ([]progress.RankedParticipant, error) {
	policy, err := s.policyFor(ctx, challengeID, mode)
	if err != nil {
		return nil, err
	}

	participants, err := s.enrollmentSvc.ListParticipants(ctx, challengeID, now)
	if err != nil {
		return nil, err
	}

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

	return progress.Rank(eligible), nil
}

// AutoSelectWinners replaces the recorded winners with the top n eligible
// participants. Creator-only.
func (s *WinnerService) AutoSelectWinners(ctx context.Context, clerkID string, challengeID uuid.UUID, n int, mode progress.EligibilityMode, now time.Time) ([]*winner.WinnerWithProfile, error) {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := s.challengeSvc.requireOwner(ctx, clerkID, ch); err != nil {
		return nil, err
	}
	selectorID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		n = 3
	}

	eligible, err := s.EligibleParticipants(ctx, challengeID, mode, now)
	if err != nil {
		return nil, err
	}
	top := progress.TopN(eligible, n)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM winners WHERE challenge_id = $1`, challengeID); err != nil {
		return nil, fmt.Errorf("failed to clear winners: %w", err)
	}

	for _, p := range top {
		if _, err := tx.Exec(ctx, `
			INSERT INTO winners (id, challenge_id, user_id, rank, selected_by, selected_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), challengeID, p.UserID, p.Rank, selectorID, now); err != nil {
			return nil, fmt.Errorf("failed to record winner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.ListWinners(ctx, challengeID)
}

// RecordWinner adds or moves one manual pick. Creator-only; the user must be
// enrolled.
func (s *WinnerService) RecordWinner(ctx context.Context, clerkID string, challengeID uuid.UUID, req *winner.RecordWinnerRequest, now time.Time) (*winner.Winner, error) {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if err := s.challengeSvc.requireOwner(ctx, clerkID, ch); err != nil {
		return nil, err
	}
	selectorID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var enrolled bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE challenge_id = $1 AND user_id = $2)
	`, challengeID, req.UserID).Scan(&enrolled); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !enrolled {
		return nil, ErrNotAParticipant
	}

	rank := req.Rank
	if rank <= 0 {
		rank = 1
	}

	w := &winner.Winner{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO winners (id, challenge_id, user_id, rank, selected_by, selected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (challenge_id, user_id)
		DO UPDATE SET rank = EXCLUDED.rank, selected_by = EXCLUDED.selected_by, selected_at = EXCLUDED.selected_at
		RETURNING id, challenge_id, user_id, rank, selected_by, selected_at
	`, uuid.New(), challengeID, req.UserID, rank, selectorID, now).Scan(
		&w.ID, &w.ChallengeID, &w.UserID, &w.Rank, &w.SelectedBy, &w.SelectedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record winner: %w", err)
	}

	return w, nil
}

func (s *WinnerService) RemoveWinner(ctx context.Context, clerkID string, challengeID, userID uuid.UUID) error {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if err := s.challengeSvc.requireOwner(ctx, clerkID, ch); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx,
		`DELETE FROM winners WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID,
	); err != nil {
		return fmt.Errorf("failed to remove winner: %w", err)
	}
	return nil
}

func (s *WinnerService) ListWinners(ctx context.Context, challengeID uuid.UUID) ([]*winner.WinnerWithProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.id, w.challenge_id, w.user_id, w.rank, w.selected_by, w.selected_at, u.username, u.image_url
		FROM winners w
		JOIN users u ON u.id = w.user_id
		WHERE w.challenge_id = $1
		ORDER BY w.rank ASC, w.selected_at ASC
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var out []*winner.WinnerWithProfile
	for rows.Next() {
		w := &winner.WinnerWithProfile{}
		if err := rows.Scan(&w.ID, &w.ChallengeID, &w.UserID, &w.Rank, &w.SelectedBy, &w.SelectedAt, &w.Username, &w.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		out = append(out, w)
	}

	return out, rows.Err()
}
