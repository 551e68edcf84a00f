package repository

import (
	"database/sql"
	"fmt"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// ExerciseRepository handles database operations for the exercise catalog
// and its prerequisite graph
type ExerciseRepository struct {
	db database.DBTX
}

// NewExerciseRepository creates a new exercise repository
func NewExerciseRepository(db database.DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ExerciseRepository) WithTx(tx *database.Tx) *ExerciseRepository {
	return &ExerciseRepository{db: tx}
}

// Create inserts a new exercise into the catalog
func (r *ExerciseRepository) Create(name, description string, difficulty models.Difficulty, adventurePoints int) (*models.Exercise, error) {
	query := `
		INSERT INTO exercises (name, description, difficulty, adventure_points)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, name, description, int(difficulty), adventurePoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves an exercise by ID
func (r *ExerciseRepository) GetByID(exerciseID int64) (*models.Exercise, error) {
	query := `
		SELECT id, name, description, difficulty, adventure_points, created_at, updated_at
		FROM exercises
		WHERE id = ?
	`
	exercise := &models.Exercise{}
	var difficulty int
	err := r.db.QueryRow(query, exerciseID).Scan(
		&exercise.ID,
		&exercise.Name,
		&exercise.Description,
		&difficulty,
		&exercise.AdventurePoints,
		&exercise.CreatedAt,
		&exercise.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	exercise.Difficulty = models.Difficulty(difficulty)
	return exercise, nil
}

// List retrieves all exercises ordered by difficulty then name
func (r *ExerciseRepository) List() ([]models.Exercise, error) {
	query := `
		SELECT id, name, description, difficulty, adventure_points, created_at, updated_at
		FROM exercises
		ORDER BY difficulty ASC, name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		var exercise models.Exercise
		var difficulty int
		if err := rows.Scan(
			&exercise.ID,
			&exercise.Name,
			&exercise.Description,
			&difficulty,
			&exercise.AdventurePoints,
			&exercise.CreatedAt,
			&exercise.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercise.Difficulty = models.Difficulty(difficulty)
		exercises = append(exercises, exercise)
	}
	return exercises, rows.Err()
}

// AddPrerequisite inserts a prerequisite edge. Cycle validation happens in
// the service layer before this is called.
func (r *ExerciseRepository) AddPrerequisite(exerciseID, requiredExerciseID int64, minCount, minRating int) (*models.Prerequisite, error) {
	query := `
		INSERT INTO prerequisites (exercise_id, required_exercise_id, min_count, min_rating)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, exerciseID, requiredExerciseID, minCount, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to add prerequisite: %w", err)
	}
	return &models.Prerequisite{
		ID:                 id,
		ExerciseID:         exerciseID,
		RequiredExerciseID: requiredExerciseID,
		MinCount:           minCount,
		MinRating:          minRating,
	}, nil
}

// GetPrerequisites retrieves the prerequisite edges gating one exercise
func (r *ExerciseRepository) GetPrerequisites(exerciseID int64) ([]models.Prerequisite, error) {
	query := `
		SELECT id, exercise_id, required_exercise_id, min_count, min_rating
		FROM prerequisites
		WHERE exercise_id = ?
	`
	return r.queryPrerequisites(query, exerciseID)
}

// GetAllPrerequisites retrieves every prerequisite edge in the catalog.
// Used for transitive cycle checks before inserting a new edge.
func (r *ExerciseRepository) GetAllPrerequisites() ([]models.Prerequisite, error) {
	query := `
		SELECT id, exercise_id, required_exercise_id, min_count, min_rating
		FROM prerequisites
	`
	return r.queryPrerequisites(query)
}

func (r *ExerciseRepository) queryPrerequisites(query string, args ...interface{}) ([]models.Prerequisite, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prerequisites: %w", err)
	}
	defer rows.Close()

	var prereqs []models.Prerequisite
	for rows.Next() {
		var p models.Prerequisite
		if err := rows.Scan(&p.ID, &p.ExerciseID, &p.RequiredExerciseID, &p.MinCount, &p.MinRating); err != nil {
			return nil, fmt.Errorf("failed to scan prerequisite: %w", err)
		}
		prereqs = append(prereqs, p)
	}
	return prereqs, rows.Err()
}
