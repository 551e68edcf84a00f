package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fitquest/internal/service"
)

// ProgressHandler handles session completion and progress reads
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

type completeSessionRequest struct {
	ProfileID       int64  `json:"profile_id"`
	ExerciseID      int64  `json:"exercise_id"`
	PathID          *int64 `json:"path_id"`
	DurationSeconds int    `json:"duration_seconds"`
	QualityRating   int    `json:"quality_rating"`
}

// CompleteSession handles POST /api/sessions. The ledger append and every
// derived update commit together; the response carries the session with its
// awarded points.
func (h *ProgressHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.progressService.CompleteSession(r.Context(), caller.ID, service.CompleteSessionInput{
		ProfileID:       req.ProfileID,
		ExerciseID:      req.ExerciseID,
		PathID:          req.PathID,
		DurationSeconds: req.DurationSeconds,
		QualityRating:   req.QualityRating,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sessionView(session))
}

// ListSessions handles GET /api/profiles/{id}/sessions?limit=N
func (h *ProgressHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	sessions, err := h.progressService.ListSessions(caller.ID, profileID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, sessionView(&sessions[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetAggregate handles GET /api/profiles/{id}/progress
func (h *ProgressHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	aggregate, err := h.progressService.GetAggregate(caller.ID, profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, aggregateView(aggregate))
}

// ListPathProgress handles GET /api/profiles/{id}/paths
func (h *ProgressHandler) ListPathProgress(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	progress, err := h.progressService.ListPathProgress(caller.ID, profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]PathProgressView, 0, len(progress))
	for i := range progress {
		views = append(views, pathProgressView(&progress[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetPathProgress handles GET /api/profiles/{id}/paths/{pathID}
func (h *ProgressHandler) GetPathProgress(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}
	pathID, ok := parseIDParam(r, "pathID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid path id", nil)
		return
	}

	progress, err := h.progressService.GetPathProgress(caller.ID, profileID, pathID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pathProgressView(progress))
}
