package repository

import (
	"database/sql"
	"fmt"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// AdventureRepository handles database operations for adventure paths and
// their exercise membership
type AdventureRepository struct {
	db database.DBTX
}

// NewAdventureRepository creates a new adventure repository
func NewAdventureRepository(db database.DBTX) *AdventureRepository {
	return &AdventureRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AdventureRepository) WithTx(tx *database.Tx) *AdventureRepository {
	return &AdventureRepository{db: tx}
}

// CreatePath inserts a new adventure path with no exercises
func (r *AdventureRepository) CreatePath(name, description string) (*models.AdventurePath, error) {
	query := "INSERT INTO adventure_paths (name, description, total_exercises) VALUES (?, ?, 0)"
	id, err := r.db.ExecReturningID(query, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create adventure path: %w", err)
	}
	return r.GetPathByID(id)
}

// GetPathByID retrieves an adventure path by ID
func (r *AdventureRepository) GetPathByID(pathID int64) (*models.AdventurePath, error) {
	query := `
		SELECT id, name, description, total_exercises, created_at, updated_at
		FROM adventure_paths
		WHERE id = ?
	`
	path := &models.AdventurePath{}
	err := r.db.QueryRow(query, pathID).Scan(
		&path.ID,
		&path.Name,
		&path.Description,
		&path.TotalExercises,
		&path.CreatedAt,
		&path.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get adventure path: %w", err)
	}
	return path, nil
}

// ListPaths retrieves all adventure paths
func (r *AdventureRepository) ListPaths() ([]models.AdventurePath, error) {
	query := `
		SELECT id, name, description, total_exercises, created_at, updated_at
		FROM adventure_paths
		ORDER BY name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query adventure paths: %w", err)
	}
	defer rows.Close()

	var paths []models.AdventurePath
	for rows.Next() {
		var path models.AdventurePath
		if err := rows.Scan(
			&path.ID,
			&path.Name,
			&path.Description,
			&path.TotalExercises,
			&path.CreatedAt,
			&path.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan adventure path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// AddExercise places an exercise at a position within a path. Positions are
// unique per path, enforced by a database constraint.
func (r *AdventureRepository) AddExercise(pathID, exerciseID int64, position, weekNumber int) (*models.PathExercise, error) {
	query := `
		INSERT INTO path_exercises (path_id, exercise_id, position, week_number)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, pathID, exerciseID, position, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to add path exercise: %w", err)
	}
	return &models.PathExercise{
		ID:         id,
		PathID:     pathID,
		ExerciseID: exerciseID,
		Position:   position,
		WeekNumber: weekNumber,
	}, nil
}

// RemoveExercise removes an exercise from a path
func (r *AdventureRepository) RemoveExercise(pathID, exerciseID int64) error {
	query := "DELETE FROM path_exercises WHERE path_id = ? AND exercise_id = ?"
	if _, err := r.db.Exec(query, pathID, exerciseID); err != nil {
		return fmt.Errorf("failed to remove path exercise: %w", err)
	}
	return nil
}

// ListPathExercises retrieves a path's membership in sequence order
func (r *AdventureRepository) ListPathExercises(pathID int64) ([]models.PathExercise, error) {
	query := `
		SELECT id, path_id, exercise_id, position, week_number
		FROM path_exercises
		WHERE path_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.Query(query, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query path exercises: %w", err)
	}
	defer rows.Close()

	var entries []models.PathExercise
	for rows.Next() {
		var entry models.PathExercise
		if err := rows.Scan(&entry.ID, &entry.PathID, &entry.ExerciseID, &entry.Position, &entry.WeekNumber); err != nil {
			return nil, fmt.Errorf("failed to scan path exercise: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RefreshTotalExercises recomputes the derived total_exercises counter from
// the path's current membership
func (r *AdventureRepository) RefreshTotalExercises(pathID int64) error {
	query := `
		UPDATE adventure_paths
		SET total_exercises = (SELECT COUNT(*) FROM path_exercises WHERE path_id = ?),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, pathID, pathID); err != nil {
		return fmt.Errorf("failed to refresh total exercises: %w", err)
	}
	return nil
}

// ListPathIDsContaining returns the IDs of every path that includes the exercise
func (r *AdventureRepository) ListPathIDsContaining(exerciseID int64) ([]int64, error) {
	query := "SELECT DISTINCT path_id FROM path_exercises WHERE exercise_id = ?"
	rows, err := r.db.Query(query, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths containing exercise: %w", err)
	}
	defer rows.Close()

	var pathIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan path id: %w", err)
		}
		pathIDs = append(pathIDs, id)
	}
	return pathIDs, rows.Err()
}
