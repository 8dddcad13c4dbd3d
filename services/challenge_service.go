package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/types/challenge"
	"challengeHubAPI/internal/types/invite"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrNotChallengeOwner = errors.New("only the challenge creator can do this")
	ErrInvalidChallenge  = errors.New("invalid challenge configuration")
	ErrInviteNotFound    = errors.New("invite not found or expired")
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

func validCadence(c progress.Cadence) bool {
	return c == progress.CadenceDaily || c == progress.CadenceEndOfChallenge
}

func validProofType(p challenge.ProofType) bool {
	return p == challenge.ProofText || p == challenge.ProofPhoto || p == challenge.ProofLink
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	creatorID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidChallenge)
	}
	if !validCadence(req.Cadence) {
		return nil, fmt.Errorf("%w: cadence must be daily or end_of_challenge", ErrInvalidChallenge)
	}
	if !validProofType(req.ProofType) {
		return nil, fmt.Errorf("%w: proof type must be text, photo or link", ErrInvalidChallenge)
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() || req.EndAt.Before(req.StartAt) {
		return nil, fmt.Errorf("%w: end date must not precede start date", ErrInvalidChallenge)
	}

	rulesJSON, err := marshalRules(req.Rules)
	if err != nil {
		return nil, err
	}

	ch := &challenge.Challenge{}
	query := `
	INSERT INTO challenges (id, creator_id, title, description, cadence, proof_type, start_at, end_at, rules, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	RETURNING id, creator_id, title, description, cadence, proof_type, start_at, end_at, rules, created_at, updated_at
	`

	row := s.db.QueryRow(ctx, query,
		uuid.New(), creatorID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description),
		req.Cadence, req.ProofType, req.StartAt, req.EndAt, rulesJSON,
	)
	if err := scanChallenge(row, ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `
	SELECT id, creator_id, title, description, cadence, proof_type, start_at, end_at, rules, created_at, updated_at
	FROM challenges WHERE id = $1
	`

	ch := &challenge.Challenge{}
	if err := scanChallenge(s.db.QueryRow(ctx, query, id), ch); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return ch, nil
}

// ListChallenges filters by temporal state: "upcoming", "active", "ended" or
// empty for everything, newest first.
func (s *ChallengeService) ListChallenges(ctx context.Context, state string, now time.Time) ([]*challenge.Challenge, error) {
	query := `
	SELECT id, creator_id, title, description, cadence, proof_type, start_at, end_at, rules, created_at, updated_at
	FROM challenges
	`

	var args []any
	switch state {
	case "upcoming":
		query += ` WHERE start_at > $1`
		args = append(args, now)
	case "active":
		query += ` WHERE start_at <= $1 AND end_at >= $1`
		args = append(args, now)
	case "ended":
		query += ` WHERE end_at < $1`
		args = append(args, now)
	case "":
	default:
		return nil, fmt.Errorf("%w: unknown state filter %q", ErrInvalidChallenge, state)
	}
	query += ` ORDER BY start_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var out []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		if err := scanChallenge(rows, ch); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, ch)
	}

	return out, rows.Err()
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, clerkID string, id uuid.UUID, req *challenge.UpdateChallengeRequest) (*challenge.Challenge, error) {
	existing, err := s.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, clerkID, existing); err != nil {
		return nil, err
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		existing.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Cadence != nil {
		if !validCadence(*req.Cadence) {
			return nil, fmt.Errorf("%w: cadence must be daily or end_of_challenge", ErrInvalidChallenge)
		}
		existing.Cadence = *req.Cadence
	}
	if req.ProofType != nil {
		if !validProofType(*req.ProofType) {
			return nil, fmt.Errorf("%w: proof type must be text, photo or link", ErrInvalidChallenge)
		}
		existing.ProofType = *req.ProofType
	}
	if req.StartAt != nil {
		existing.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		existing.EndAt = *req.EndAt
	}
	if existing.EndAt.Before(existing.StartAt) {
		return nil, fmt.Errorf("%w: end date must not precede start date", ErrInvalidChallenge)
	}
	if req.Rules != nil {
		if req.Rules.Cadence != nil && !validCadence(*req.Rules.Cadence) {
			return nil, fmt.Errorf("%w: rules cadence must be daily or end_of_challenge", ErrInvalidChallenge)
		}
		existing.Rules = req.Rules
	}

	rulesJSON, err := marshalRules(existing.Rules)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE challenges
	SET title = $1, description = $2, cadence = $3, proof_type = $4, start_at = $5, end_at = $6, rules = $7, updated_at = NOW()
	WHERE id = $8
	RETURNING updated_at
	`
	if err := s.db.QueryRow(ctx, query,
		existing.Title, existing.Description, existing.Cadence, existing.ProofType,
		existing.StartAt, existing.EndAt, rulesJSON, id,
	).Scan(&existing.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	return existing, nil
}

func (s *ChallengeService) DeleteChallenge(ctx context.Context, clerkID string, id uuid.UUID) error {
	existing, err := s.GetChallenge(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, clerkID, existing); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

func generateShareLink(challengeID uuid.UUID, token string) string {
	return fmt.Sprintf("challengehub://challenge/%s/join?inviteToken=%s", challengeID, token)
}

// GenerateInvite creates a share session for a challenge: a deep link and a
// QR code that lets another member join directly. Sessions expire after 72h
// and are swept by the cleanup worker.
func (s *ChallengeService) GenerateInvite(ctx context.Context, clerkID string, challengeID uuid.UUID) (*invite.InviteSessionResponse, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}

	qrToken := uuid.New().String()
	// Use UTC to keep DB and server comparisons consistent
	expiresAt := time.Now().UTC().Add(72 * time.Hour)

	inv := &invite.ChallengeInvite{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO challenge_invites (challenge_id, created_by, qr_token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, challenge_id, created_by, qr_token, expires_at, created_at
	`, challengeID, userID, qrToken, expiresAt).Scan(
		&inv.ID, &inv.ChallengeID, &inv.CreatedBy, &inv.QrToken, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invite: %w", err)
	}

	link := generateShareLink(inv.ChallengeID, inv.QrToken)
	pngBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &invite.InviteSessionResponse{
		InviteID:     inv.ID,
		ShareLink:    link,
		QrToken:      inv.QrToken,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
		ExpiresAt:    inv.ExpiresAt,
	}, nil
}

// RedeemInvite resolves a scanned QR token to its challenge. The actual
// enrollment goes through EnrollmentService.JoinChallenge.
func (s *ChallengeService) RedeemInvite(ctx context.Context, qrToken string) (uuid.UUID, error) {
	var challengeID uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT challenge_id FROM challenge_invites
		WHERE qr_token = $1 AND expires_at > NOW()
	`, qrToken).Scan(&challengeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, ErrInviteNotFound
		}
		return uuid.Nil, fmt.Errorf("database error: %w", err)
	}
	return challengeID, nil
}

func (s *ChallengeService) requireOwner(ctx context.Context, clerkID string, ch *challenge.Challenge) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}
	if ch.CreatorID != userID {
		return ErrNotChallengeOwner
	}
	return nil
}

func marshalRules(r *challenge.Rules) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules: %w", err)
	}
	return b, nil
}

// scanChallenge works for both QueryRow and rows iteration; rules arrive as
// raw JSONB and may be NULL.
func scanChallenge(row pgx.Row, ch *challenge.Challenge) error {
	var rulesJSON []byte
	if err := row.Scan(
		&ch.ID, &ch.CreatorID, &ch.Title, &ch.Description, &ch.Cadence, &ch.ProofType,
		&ch.StartAt, &ch.EndAt, &rulesJSON, &ch.CreatedAt, &ch.UpdatedAt,
	); err != nil {
		return err
	}
	if len(rulesJSON) > 0 {
		rules := &challenge.Rules{}
		if err := json.Unmarshal(rulesJSON, rules); err != nil {
			return fmt.Errorf("failed to unmarshal rules: %w", err)
		}
		ch.Rules = rules
	}
	return nil
}
