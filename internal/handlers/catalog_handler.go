package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"fitquest/internal/models"
	"fitquest/internal/service"
)

// CatalogHandler handles the exercise catalog, prerequisites and adventure paths
type CatalogHandler struct {
	catalogService   *service.CatalogService
	adventureService *service.AdventureService
	familyService    *service.FamilyService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService, adventureService *service.AdventureService, familyService *service.FamilyService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:   catalogService,
		adventureService: adventureService,
		familyService:    familyService,
	}
}

type createExerciseRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Difficulty      string `json:"difficulty"`
	AdventurePoints int    `json:"adventure_points"`
}

// CreateExercise handles POST /api/exercises
func (h *CatalogHandler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	difficulty, err := models.ParseDifficulty(req.Difficulty)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid difficulty", err)
		return
	}

	exercise, err := h.catalogService.CreateExercise(req.Name, req.Description, difficulty, req.AdventurePoints)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, exerciseView(exercise))
}

// ListExercises handles GET /api/exercises
func (h *CatalogHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.catalogService.ListExercises()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]ExerciseView, 0, len(exercises))
	for i := range exercises {
		views = append(views, exerciseView(&exercises[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetExercise handles GET /api/exercises/{id}
func (h *CatalogHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid exercise id", nil)
		return
	}

	exercise, err := h.catalogService.GetExercise(exerciseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, exerciseView(exercise))
}

type addPrerequisiteRequest struct {
	RequiredExerciseID int64 `json:"required_exercise_id"`
	MinCount           int   `json:"min_count"`
	MinRating          int   `json:"min_rating"`
}

type prerequisiteView struct {
	ID                 int64 `json:"id"`
	ExerciseID         int64 `json:"exercise_id"`
	RequiredExerciseID int64 `json:"required_exercise_id"`
	MinCount           int   `json:"min_count"`
	MinRating          int   `json:"min_rating"`
}

func newPrerequisiteView(p *models.Prerequisite) prerequisiteView {
	return prerequisiteView{
		ID:                 p.ID,
		ExerciseID:         p.ExerciseID,
		RequiredExerciseID: p.RequiredExerciseID,
		MinCount:           p.MinCount,
		MinRating:          p.MinRating,
	}
}

// AddPrerequisite handles POST /api/exercises/{id}/prerequisites
func (h *CatalogHandler) AddPrerequisite(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid exercise id", nil)
		return
	}

	var req addPrerequisiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	prereq, err := h.catalogService.AddPrerequisite(exerciseID, req.RequiredExerciseID, req.MinCount, req.MinRating)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newPrerequisiteView(prereq))
}

// GetUnlockState handles GET /api/profiles/{id}/exercises/{exerciseID}/unlocked.
// The unlock state is computed on demand from the profile's session history.
func (h *CatalogHandler) GetUnlockState(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	profileID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid profile id", nil)
		return
	}
	exerciseID, ok := parseIDParam(r, "exerciseID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid exercise id", nil)
		return
	}

	// Read access to the profile gates visibility of its unlock state
	if _, err := h.familyService.GetProfile(caller.ID, profileID); err != nil {
		respondServiceError(w, err)
		return
	}

	if _, err := h.catalogService.GetExercise(exerciseID); err != nil {
		respondServiceError(w, err)
		return
	}

	unlocked, err := h.catalogService.IsUnlocked(profileID, exerciseID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile_id":  profileID,
		"exercise_id": exerciseID,
		"unlocked":    unlocked,
	})
}

type createPathRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type pathView struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	TotalExercises int    `json:"total_exercises"`
	CreatedAt      string `json:"created_at"`
}

func newPathView(p *models.AdventurePath) pathView {
	return pathView{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		TotalExercises: p.TotalExercises,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

type pathEntryView struct {
	ExerciseID int64 `json:"exercise_id"`
	Position   int   `json:"position"`
	WeekNumber int   `json:"week_number"`
}

// CreatePath handles POST /api/paths
func (h *CatalogHandler) CreatePath(w http.ResponseWriter, r *http.Request) {
	var req createPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	path, err := h.adventureService.CreatePath(req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newPathView(path))
}

// ListPaths handles GET /api/paths
func (h *CatalogHandler) ListPaths(w http.ResponseWriter, r *http.Request) {
	paths, err := h.adventureService.ListPaths()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]pathView, 0, len(paths))
	for i := range paths {
		views = append(views, newPathView(&paths[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetPath handles GET /api/paths/{id} and includes the ordered entries
func (h *CatalogHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	pathID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid path id", nil)
		return
	}

	path, entries, err := h.adventureService.GetPath(pathID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	entryViews := make([]pathEntryView, 0, len(entries))
	for _, entry := range entries {
		entryViews = append(entryViews, pathEntryView{
			ExerciseID: entry.ExerciseID,
			Position:   entry.Position,
			WeekNumber: entry.WeekNumber,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"path":      newPathView(path),
		"exercises": entryViews,
	})
}

type addPathExerciseRequest struct {
	ExerciseID int64 `json:"exercise_id"`
	Position   int   `json:"position"`
	WeekNumber int   `json:"week_number"`
}

// AddPathExercise handles POST /api/paths/{id}/exercises
func (h *CatalogHandler) AddPathExercise(w http.ResponseWriter, r *http.Request) {
	pathID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid path id", nil)
		return
	}

	var req addPathExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	entry, err := h.adventureService.AddExercise(pathID, req.ExerciseID, req.Position, req.WeekNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, pathEntryView{
		ExerciseID: entry.ExerciseID,
		Position:   entry.Position,
		WeekNumber: entry.WeekNumber,
	})
}

// RemovePathExercise handles DELETE /api/paths/{id}/exercises/{exerciseID}
func (h *CatalogHandler) RemovePathExercise(w http.ResponseWriter, r *http.Request) {
	pathID, ok := parseIDParam(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid path id", nil)
		return
	}
	exerciseID, ok := parseIDParam(r, "exerciseID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid exercise id", nil)
		return
	}

	if err := h.adventureService.RemoveExercise(pathID, exerciseID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
