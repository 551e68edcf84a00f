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
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrPrerequisiteCycle = errors.New("prerequisite would create a cycle")
)

// CatalogService manages the exercise catalog, the prerequisite graph and
// the unlock computation
type CatalogService struct {
	exerciseRepo *repository.ExerciseRepository
	sessionRepo  *repository.SessionRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(exerciseRepo *repository.ExerciseRepository, sessionRepo *repository.SessionRepository) *CatalogService {
	return &CatalogService{
		exerciseRepo: exerciseRepo,
		sessionRepo:  sessionRepo,
	}
}

// CreateExercise adds an exercise to the catalog
func (s *CatalogService) CreateExercise(name, description string, difficulty models.Difficulty, adventurePoints int) (*models.Exercise, error) {
	if err := validation.ValidateDisplayName(name); err != nil {
		return nil, validation.ValidationError{Field: "name", Message: "exercise name is required"}
	}
	if adventurePoints < 0 {
		return nil, validation.ValidationError{Field: "adventure_points", Message: "points must not be negative"}
	}

	exercise, err := s.exerciseRepo.Create(name, description, difficulty, adventurePoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	return exercise, nil
}

// GetExercise retrieves one exercise
func (s *CatalogService) GetExercise(exerciseID int64) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if exercise == nil {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

// ListExercises retrieves the whole catalog
func (s *CatalogService) ListExercises() ([]models.Exercise, error) {
	exercises, err := s.exerciseRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return exercises, nil
}

// AddPrerequisite inserts a prerequisite edge after checking it keeps the
// graph acyclic. An exercise may never, directly or transitively, require
// itself.
func (s *CatalogService) AddPrerequisite(exerciseID, requiredExerciseID int64, minCount, minRating int) (*models.Prerequisite, error) {
	if minCount < 1 {
		return nil, validation.ValidationError{Field: "min_count", Message: "minimum count must be at least 1"}
	}
	if err := validation.ValidateQualityRating(minRating); err != nil {
		return nil, validation.ValidationError{Field: "min_rating", Message: "minimum rating must be between 1 and 5"}
	}

	for _, id := range []int64{exerciseID, requiredExerciseID} {
		exercise, err := s.exerciseRepo.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get exercise: %w", err)
		}
		if exercise == nil {
			return nil, ErrExerciseNotFound
		}
	}

	edges, err := s.exerciseRepo.GetAllPrerequisites()
	if err != nil {
		return nil, fmt.Errorf("failed to load prerequisite graph: %w", err)
	}
	if wouldCreateCycle(edges, exerciseID, requiredExerciseID) {
		return nil, ErrPrerequisiteCycle
	}

	prereq, err := s.exerciseRepo.AddPrerequisite(exerciseID, requiredExerciseID, minCount, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to add prerequisite: %w", err)
	}
	return prereq, nil
}

// IsUnlocked reports whether a profile has satisfied every prerequisite of
// an exercise. An exercise with no prerequisites is always unlocked. The
// check is evaluated lazily from the session ledger; no unlocked state is
// materialized.
func (s *CatalogService) IsUnlocked(profileID, exerciseID int64) (bool, error) {
	return isUnlocked(s.exerciseRepo, s.sessionRepo, profileID, exerciseID)
}

// isUnlockedInTx evaluates the unlock check against a transaction snapshot.
// The session completion pipeline uses this so the gate and the ledger
// append see the same state.
func (s *CatalogService) isUnlockedInTx(tx *database.Tx, profileID, exerciseID int64) (bool, error) {
	return isUnlocked(s.exerciseRepo.WithTx(tx), s.sessionRepo.WithTx(tx), profileID, exerciseID)
}

func isUnlocked(exerciseRepo *repository.ExerciseRepository, sessionRepo *repository.SessionRepository, profileID, exerciseID int64) (bool, error) {
	prereqs, err := exerciseRepo.GetPrerequisites(exerciseID)
	if err != nil {
		return false, fmt.Errorf("failed to get prerequisites: %w", err)
	}

	for _, p := range prereqs {
		count, err := sessionRepo.CountQualifying(profileID, p.RequiredExerciseID, p.MinRating)
		if err != nil {
			return false, fmt.Errorf("failed to count sessions: %w", err)
		}
		if count < p.MinCount {
			return false, nil
		}
	}
	return true, nil
}

// wouldCreateCycle reports whether adding the edge exercise -> required
// would make the prerequisite graph cyclic. The new edge closes a cycle
// exactly when the exercise is already reachable from the required exercise
// by following existing requirement edges.
func wouldCreateCycle(edges []models.Prerequisite, exerciseID, requiredExerciseID int64) bool {
	if exerciseID == requiredExerciseID {
		return true
	}

	requires := make(map[int64][]int64)
	for _, e := range edges {
		requires[e.ExerciseID] = append(requires[e.ExerciseID], e.RequiredExerciseID)
	}

	visited := make(map[int64]bool)
	stack := []int64{requiredExerciseID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == exerciseID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, requires[current]...)
	}
	return false
}
