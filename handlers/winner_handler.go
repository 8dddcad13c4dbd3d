package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/types/winner"
	"challengeHubAPI/middleware"
	"challengeHubAPI/services"
)

type WinnerHandler struct {
	winnerService *services.WinnerService
}

func NewWinnerHandler(winnerService *services.WinnerService) *WinnerHandler {
	return &WinnerHandler{
		winnerService: winnerService,
	}
}

// eligibilityMode maps the query parameter onto the two named policies. The
// admin winner screen defaults to the threshold policy; the leaderboard
// endpoint uses any-participation on its own.
func eligibilityMode(r *http.Request) progress.EligibilityMode {
	switch r.URL.Query().Get("mode") {
	case "any":
		return progress.ModeAnyParticipation
	case "threshold", "":
		return progress.ModeThresholdMet
	default:
		return ""
	}
}

func (h *WinnerHandler) GetEligibleParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	id, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	mode := eligibilityMode(r)
	if mode == "" {
		respondWithError(w, http.StatusBadRequest, "mode must be 'any' or 'threshold'")
		return
	}

	eligible, err := h.winnerService.EligibleParticipants(ctx, id, mode, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, eligible)
}

func (h *WinnerHandler) AutoSelectWinners(w http.ResponseWriter, r *http.Request) {
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

	mode := eligibilityMode(r)
	if mode == "" {
		respondWithError(w, http.StatusBadRequest, "mode must be 'any' or 'threshold'")
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	winners, err := h.winnerService.AutoSelectWinners(ctx, clerkID, id, count, mode, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, winners)
}

func (h *WinnerHandler) RecordWinner(w http.ResponseWriter, r *http.Request) {
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

	var req winner.RecordWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	win, err := h.winnerService.RecordWinner(ctx, clerkID, id, &req, time.Now().UTC())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, win)
}

func (h *WinnerHandler) RemoveWinner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	challengeID, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.winnerService.RemoveWinner(ctx, clerkID, challengeID, userID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Winner removed"})
}

func (h *WinnerHandler) ListWinners(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "challengeID")
	if !ok {
		return
	}

	winners, err := h.winnerService.ListWinners(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, winners)
}
