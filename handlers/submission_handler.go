package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"challengeHubAPI/internal/types/submission"
	"challengeHubAPI/middleware"
	"challengeHubAPI/services"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
	}
}

func (h *SubmissionHandler) CreateProof(w http.ResponseWriter, r *http.Request) {
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

	var req submission.CreateProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	proof, err := h.submissionService.CreateProof(ctx, clerkID, id, &req, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	middleware.CountProofCreated()
	respondWithJSON(w, http.StatusCreated, proof)
}

func (h *SubmissionHandler) ListProofs(w http.ResponseWriter, r *http.Request) {
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

	proofs, err := h.submissionService.ListProofs(ctx, clerkID, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, proofs)
}

func (h *SubmissionHandler) GetActiveProof(w http.ResponseWriter, r *http.Request) {
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

	proof, err := h.submissionService.GetActiveProof(ctx, clerkID, id)
	if err != nil {
		if errors.Is(err, services.ErrProofNotFound) {
			respondWithError(w, http.StatusNotFound, "No active proof")
			return
		}
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, proof)
}

func (h *SubmissionHandler) DeactivateProof(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, ok := pathUUID(w, r, "proofID")
	if !ok {
		return
	}

	if err := h.submissionService.DeactivateProof(ctx, clerkID, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Proof removed"})
}
