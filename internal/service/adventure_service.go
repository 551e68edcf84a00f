package service

import (
	"errors"
	"fmt"

	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
	"fitquest/internal/validation"
)

var (
	ErrPathNotFound      = errors.New("adventure path not found")
	ErrPositionTaken     = errors.New("path position already taken")
	ErrNotInPath         = errors.New("exercise not in path")
	ErrExerciseInPathDup = errors.New("exercise already in path")
)

// AdventureService manages adventure paths and their exercise membership.
// A membership change and the refresh of the derived total_exercises counter
// commit as one transaction so the counter always equals the count of the
// path's entries.
type AdventureService struct {
	db            *database.DB
	adventureRepo *repository.AdventureRepository
	exerciseRepo  *repository.ExerciseRepository
}

// NewAdventureService creates a new adventure service
func NewAdventureService(db *database.DB, adventureRepo *repository.AdventureRepository, exerciseRepo *repository.ExerciseRepository) *AdventureService {
	return &AdventureService{
		db:            db,
		adventureRepo: adventureRepo,
		exerciseRepo:  exerciseRepo,
	}
}

// CreatePath creates a new, empty adventure path
func (s *AdventureService) CreatePath(name, description string) (*models.AdventurePath, error) {
	if err := validation.ValidateDisplayName(name); err != nil {
		return nil, validation.ValidationError{Field: "name", Message: "path name is required"}
	}

	path, err := s.adventureRepo.CreatePath(name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create path: %w", err)
	}
	return path, nil
}

// GetPath retrieves a path with its ordered exercise entries
func (s *AdventureService) GetPath(pathID int64) (*models.AdventurePath, []models.PathExercise, error) {
	path, err := s.adventureRepo.GetPathByID(pathID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get path: %w", err)
	}
	if path == nil {
		return nil, nil, ErrPathNotFound
	}

	entries, err := s.adventureRepo.ListPathExercises(pathID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list path exercises: %w", err)
	}
	return path, entries, nil
}

// ListPaths retrieves all adventure paths
func (s *AdventureService) ListPaths() ([]models.AdventurePath, error) {
	paths, err := s.adventureRepo.ListPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	return paths, nil
}

// AddExercise places an exercise in a path and refreshes the derived
// exercise count
func (s *AdventureService) AddExercise(pathID, exerciseID int64, position, weekNumber int) (*models.PathExercise, error) {
	if position < 1 {
		return nil, validation.ValidationError{Field: "position", Message: "position must be at least 1"}
	}
	if weekNumber < 1 {
		return nil, validation.ValidationError{Field: "week_number", Message: "week number must be at least 1"}
	}

	path, err := s.adventureRepo.GetPathByID(pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to get path: %w", err)
	}
	if path == nil {
		return nil, ErrPathNotFound
	}

	exercise, err := s.exerciseRepo.GetByID(exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if exercise == nil {
		return nil, ErrExerciseNotFound
	}

	entries, err := s.adventureRepo.ListPathExercises(pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to list path exercises: %w", err)
	}
	for _, entry := range entries {
		if entry.Position == position {
			return nil, ErrPositionTaken
		}
		if entry.ExerciseID == exerciseID {
			return nil, ErrExerciseInPathDup
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := s.adventureRepo.WithTx(tx)
	entry, err := txRepo.AddExercise(pathID, exerciseID, position, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to add exercise to path: %w", err)
	}

	if err := txRepo.RefreshTotalExercises(pathID); err != nil {
		return nil, fmt.Errorf("failed to refresh path total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit membership change: %w", err)
	}

	return entry, nil
}

// RemoveExercise removes an exercise from a path and refreshes the derived
// exercise count
func (s *AdventureService) RemoveExercise(pathID, exerciseID int64) error {
	entries, err := s.adventureRepo.ListPathExercises(pathID)
	if err != nil {
		return fmt.Errorf("failed to list path exercises: %w", err)
	}

	found := false
	for _, entry := range entries {
		if entry.ExerciseID == exerciseID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotInPath
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := s.adventureRepo.WithTx(tx)
	if err := txRepo.RemoveExercise(pathID, exerciseID); err != nil {
		return fmt.Errorf("failed to remove exercise from path: %w", err)
	}

	if err := txRepo.RefreshTotalExercises(pathID); err != nil {
		return fmt.Errorf("failed to refresh path total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit membership change: %w", err)
	}

	return nil
}
