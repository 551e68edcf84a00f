package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fitquest/internal/models"
	"fitquest/internal/service"
)

// FamilyHandler handles child profiles and the relationship graph
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

// parseIDParam reads a numeric path parameter
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type createChildRequest struct {
	DisplayName string `json:"display_name"`
	BirthDate   string `json:"birth_date"` // YYYY-MM-DD
}

// CreateChild handles POST /api/children
func (h *FamilyHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req createChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid birth date", err)
		return
	}

	child, err := h.familyService.CreateChild(caller.ID, req.DisplayName, birthDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profileView(child))
}

// ListChildren handles GET /api/children
func (h *FamilyHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	children, err := h.familyService.ListChildren(caller.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profileViews(children))
}

// GetProfile handles GET /api/profiles/{id}
func (h *FamilyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	profile, err := h.familyService.GetProfile(caller.ID, profileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profileView(profile))
}

type updatePrivacyRequest struct {
	ShareProgress     bool `json:"share_progress"`
	ShowOnLeaderboard bool `json:"show_on_leaderboard"`
}

// UpdatePrivacy handles PUT /api/profiles/{id}/privacy
func (h *FamilyHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}

	var req updatePrivacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.familyService.UpdatePrivacy(caller.ID, profileID, req.ShareProgress, req.ShowOnLeaderboard); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type createRelationshipRequest struct {
	ParentID int64 `json:"parent_id"`
	ChildID  int64 `json:"child_id"`
}

type relationshipView struct {
	ID           int64  `json:"id"`
	ParentID     int64  `json:"parent_id"`
	ChildID      int64  `json:"child_id"`
	ConsentGiven bool   `json:"consent_given"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
}

func newRelationshipView(rel *models.Relationship) relationshipView {
	return relationshipView{
		ID:           rel.ID,
		ParentID:     rel.ParentID,
		ChildID:      rel.ChildID,
		ConsentGiven: rel.ConsentGiven,
		Active:       rel.Active,
		CreatedAt:    rel.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRelationship handles POST /api/relationships
func (h *FamilyHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req createRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rel, err := h.familyService.CreateRelationship(caller.ID, req.ParentID, req.ChildID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newRelationshipView(rel))
}

// DeactivateRelationship handles DELETE /api/relationships/{id}
func (h *FamilyHandler) DeactivateRelationship(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	relationshipID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid relationship id", nil)
		return
	}

	if err := h.familyService.DeactivateRelationship(caller.ID, relationshipID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
