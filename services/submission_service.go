package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/types/challenge"
	"challengeHubAPI/internal/types/submission"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSubmissionClosed  = errors.New("submissions are closed for this challenge")
	ErrAlreadySubmitted  = errors.New("already submitted today")
	ErrMissingProofField = errors.New("proof content does not match the challenge proof type")
	ErrProofNotFound     = errors.New("proof not found")
)

type SubmissionService struct {
	db            *pgxpool.Pool
	challengeSvc  *ChallengeService
	enrollmentSvc *EnrollmentService
}

func NewSubmissionService(db *pgxpool.Pool, challengeSvc *ChallengeService, enrollmentSvc *EnrollmentService) *SubmissionService {
	return &SubmissionService{
		db:            db,
		challengeSvc:  challengeSvc,
		enrollmentSvc: enrollmentSvc,
	}
}

// CreateProof validates the submission against the participant's current
// snapshot before writing. Daily cadence rejects a second proof on the same
// day; end-of-challenge cadence deactivates the previous proof in the same
// transaction, so at most one stays active.
func (s *SubmissionService) CreateProof(ctx context.Context, clerkID string, challengeID uuid.UUID, req *submission.CreateProofRequest, now time.Time) (*submission.Proof, error) {
	ch, err := s.challengeSvc.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	e, err := s.enrollmentSvc.GetEnrollment(ctx, clerkID, challengeID)
	if err != nil {
		return nil, err
	}

	if err := validateProofContent(ch.ProofType, req); err != nil {
		return nil, err
	}

	snap, err := s.enrollmentSvc.SnapshotFor(ctx, ch, e.ID, now)
	if err != nil {
		return nil, err
	}
	if !snap.CanSubmitToday {
		if snap.HasExistingSubmission && ch.EffectiveCadence() == progress.CadenceDaily {
			return nil, ErrAlreadySubmitted
		}
		return nil, ErrSubmissionClosed
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if ch.EffectiveCadence() == progress.CadenceEndOfChallenge {
		if _, err := tx.Exec(ctx, `
			UPDATE proofs SET is_active = false
			WHERE enrollment_id = $1 AND is_active = true
		`, e.ID); err != nil {
			return nil, fmt.Errorf("failed to deactivate previous proof: %w", err)
		}
	}

	p := &submission.Proof{}
	err = tx.QueryRow(ctx, `
		INSERT INTO proofs (id, enrollment_id, type, text, image_url, link_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7)
		RETURNING id, enrollment_id, type, text, image_url, link_url, is_active, created_at
	`, uuid.New(), e.ID, ch.ProofType, req.Text, req.ImageURL, req.LinkURL, now).Scan(
		&p.ID, &p.EnrollmentID, &p.Type, &p.Text, &p.ImageURL, &p.LinkURL, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert proof: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// ListProofs returns the caller's own submission history, newest first,
// including replaced proofs.
func (s *SubmissionService) ListProofs(ctx context.Context, clerkID string, challengeID uuid.UUID) ([]*submission.Proof, error) {
	e, err := s.enrollmentSvc.GetEnrollment(ctx, clerkID, challengeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, enrollment_id, type, text, image_url, link_url, is_active, created_at
		FROM proofs WHERE enrollment_id = $1
		ORDER BY created_at DESC
	`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proofs: %w", err)
	}
	defer rows.Close()

	var out []*submission.Proof
	for rows.Next() {
		p := &submission.Proof{}
		if err := rows.Scan(&p.ID, &p.EnrollmentID, &p.Type, &p.Text, &p.ImageURL, &p.LinkURL, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// DeactivateProof soft-deletes one of the caller's proofs. The row stays for
// history; the calculator ignores it from here on.
func (s *SubmissionService) DeactivateProof(ctx context.Context, clerkID string, proofID uuid.UUID) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE proofs p SET is_active = false
		FROM enrollments e
		WHERE p.id = $1 AND p.enrollment_id = e.id AND e.user_id = $2
	`, proofID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate proof: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProofNotFound
	}
	return nil
}

// GetActiveProof returns the proof the participant page shows for
// end-of-challenge submissions, or ErrProofNotFound when none exists.
func (s *SubmissionService) GetActiveProof(ctx context.Context, clerkID string, challengeID uuid.UUID) (*submission.Proof, error) {
	e, err := s.enrollmentSvc.GetEnrollment(ctx, clerkID, challengeID)
	if err != nil {
		return nil, err
	}

	p := &submission.Proof{}
	err = s.db.QueryRow(ctx, `
		SELECT id, enrollment_id, type, text, image_url, link_url, is_active, created_at
		FROM proofs WHERE enrollment_id = $1 AND is_active = true
		ORDER BY created_at DESC LIMIT 1
	`, e.ID).Scan(&p.ID, &p.EnrollmentID, &p.Type, &p.Text, &p.ImageURL, &p.LinkURL, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProofNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return p, nil
}

func validateProofContent(pt challenge.ProofType, req *submission.CreateProofRequest) error {
	hasText := req.Text != nil && strings.TrimSpace(*req.Text) != ""
	hasImage := req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != ""
	hasLink := req.LinkURL != nil && strings.TrimSpace(*req.LinkURL) != ""

	switch pt {
	case challenge.ProofText:
		if !hasText {
			return fmt.Errorf("%w: text proof requires text", ErrMissingProofField)
		}
	case challenge.ProofPhoto:
		if !hasImage {
			return fmt.Errorf("%w: photo proof requires an image url", ErrMissingProofField)
		}
	case challenge.ProofLink:
		if !hasLink {
			return fmt.Errorf("%w: link proof requires a link url", ErrMissingProofField)
		}
	}
	return nil
}
