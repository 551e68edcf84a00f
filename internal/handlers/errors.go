package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fitquest/internal/service"
	"fitquest/internal/validation"
)

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// errorResponse is the uniform error body
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondServiceError maps a service error to an HTTP response.
// Authorization denials arrive as service.ErrNotFound and are returned as a
// plain 404, indistinguishable from a genuinely missing row.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Message, Field: validationErr.Field})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrPathNotFound),
		errors.Is(err, service.ErrRelationshipNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})

	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrRelationshipExists),
		errors.Is(err, service.ErrPositionTaken),
		errors.Is(err, service.ErrExerciseInPathDup):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrNotAParent),
		errors.Is(err, service.ErrNotAChild),
		errors.Is(err, service.ErrChildHasLogin),
		errors.Is(err, service.ErrPrerequisiteCycle),
		errors.Is(err, service.ErrExerciseLocked),
		errors.Is(err, service.ErrChildNotLinked),
		errors.Is(err, service.ErrNotInPath),
		errors.Is(err, service.ErrInvalidResetToken):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})

	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// respondWithError writes an error with optional internal logging
func respondWithError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}
