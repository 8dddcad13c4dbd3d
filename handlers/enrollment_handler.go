package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"challengeHubAPI/middleware"
	"challengeHubAPI/services"
)

type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
	challengeService  *services.ChallengeService
}

func NewEnrollmentHandler(enrollmentService *services.EnrollmentService, challengeService *services.ChallengeService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		challengeService:  challengeService,
	}
}

func (h *EnrollmentHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	e, err := h.enrollmentService.JoinChallenge(ctx, clerkID, id, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, e)
}

// RedeemInvite resolves a scanned QR token and enrolls the caller into the
// challenge it points to.
func (h *EnrollmentHandler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		QrToken string `json:"qrToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.QrToken == "" {
		respondWithError(w, http.StatusBadRequest, "qrToken is required")
		return
	}

	challengeID, err := h.challengeService.RedeemInvite(ctx, body.QrToken)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	e, err := h.enrollmentService.JoinChallenge(ctx, clerkID, challengeID, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, e)
}

func (h *EnrollmentHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	resp, err := h.enrollmentService.GetProgress(ctx, clerkID, id, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *EnrollmentHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	board, err := h.enrollmentService.GetLeaderboard(ctx, clerkID, id, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
