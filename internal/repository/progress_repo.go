package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// ProgressRepository handles the derived progress projections: per-path
// progress rows and the per-profile aggregate totals
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ProgressRepository) WithTx(tx *database.Tx) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// CreateAggregate inserts the zero-valued aggregate row for a new profile
func (r *ProgressRepository) CreateAggregate(profileID int64) error {
	query := `
		INSERT INTO aggregate_progress (profile_id, total_points, total_exercises_completed,
			current_streak, longest_streak)
		VALUES (?, 0, 0, 0, 0)
	`
	if _, err := r.db.Exec(query, profileID); err != nil {
		return fmt.Errorf("failed to create aggregate progress: %w", err)
	}
	return nil
}

// GetAggregate retrieves a profile's aggregate totals
func (r *ProgressRepository) GetAggregate(profileID int64) (*models.AggregateProgress, error) {
	query := `
		SELECT profile_id, total_points, total_exercises_completed,
		       current_streak, longest_streak, last_session_date, updated_at
		FROM aggregate_progress
		WHERE profile_id = ?
	`
	agg := &models.AggregateProgress{}
	var lastSession sql.NullTime
	err := r.db.QueryRow(query, profileID).Scan(
		&agg.ProfileID,
		&agg.TotalPoints,
		&agg.TotalExercisesCompleted,
		&agg.CurrentStreak,
		&agg.LongestStreak,
		&lastSession,
		&agg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate progress: %w", err)
	}
	if lastSession.Valid {
		agg.LastSessionDate = &lastSession.Time
	}
	return agg, nil
}

// ApplySession folds one session into the aggregate row. Point and exercise
// totals are incremented in place so two transactions updating the same row
// serialize on the row lock instead of overwriting each other.
func (r *ProgressRepository) ApplySession(profileID int64, pointsEarned, currentStreak, longestStreak int, sessionDate time.Time) error {
	query := `
		UPDATE aggregate_progress
		SET total_points = total_points + ?,
		    total_exercises_completed = total_exercises_completed + 1,
		    current_streak = ?,
		    longest_streak = ?,
		    last_session_date = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE profile_id = ?
	`
	result, err := r.db.Exec(query, pointsEarned, currentStreak, longestStreak, sessionDate, profileID)
	if err != nil {
		return fmt.Errorf("failed to apply session to aggregate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check aggregate update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no aggregate progress row for profile %d", profileID)
	}
	return nil
}

// GetPathProgress retrieves one profile's progress row for one path
func (r *ProgressRepository) GetPathProgress(profileID, pathID int64) (*models.PathProgress, error) {
	query := `
		SELECT id, profile_id, path_id, status, exercises_completed,
		       progress_percentage, started_at, completed_at, updated_at
		FROM path_progress
		WHERE profile_id = ? AND path_id = ?
	`
	return r.scanPathProgress(r.db.QueryRow(query, profileID, pathID))
}

// InsertPathProgress inserts a fresh progress row for a (profile, path) pair
func (r *ProgressRepository) InsertPathProgress(pp *models.PathProgress) error {
	query := `
		INSERT INTO path_progress (profile_id, path_id, status, exercises_completed,
			progress_percentage, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		pp.ProfileID, pp.PathID, pp.Status, pp.ExercisesCompleted,
		pp.ProgressPercentage, nullableTime(pp.StartedAt), nullableTime(pp.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to insert path progress: %w", err)
	}
	pp.ID = id
	return nil
}

// UpdatePathProgress overwrites an existing progress row with recomputed values
func (r *ProgressRepository) UpdatePathProgress(pp *models.PathProgress) error {
	query := `
		UPDATE path_progress
		SET status = ?, exercises_completed = ?, progress_percentage = ?,
		    started_at = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query,
		pp.Status, pp.ExercisesCompleted, pp.ProgressPercentage,
		nullableTime(pp.StartedAt), nullableTime(pp.CompletedAt), pp.ID); err != nil {
		return fmt.Errorf("failed to update path progress: %w", err)
	}
	return nil
}

// ListPathProgress retrieves all of a profile's path progress rows
func (r *ProgressRepository) ListPathProgress(profileID int64) ([]models.PathProgress, error) {
	query := `
		SELECT id, profile_id, path_id, status, exercises_completed,
		       progress_percentage, started_at, completed_at, updated_at
		FROM path_progress
		WHERE profile_id = ?
		ORDER BY path_id ASC
	`
	rows, err := r.db.Query(query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query path progress: %w", err)
	}
	defer rows.Close()

	var progress []models.PathProgress
	for rows.Next() {
		var pp models.PathProgress
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(
			&pp.ID,
			&pp.ProfileID,
			&pp.PathID,
			&pp.Status,
			&pp.ExercisesCompleted,
			&pp.ProgressPercentage,
			&startedAt,
			&completedAt,
			&pp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan path progress: %w", err)
		}
		if startedAt.Valid {
			pp.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			pp.CompletedAt = &completedAt.Time
		}
		progress = append(progress, pp)
	}
	return progress, rows.Err()
}

func (r *ProgressRepository) scanPathProgress(row *sql.Row) (*models.PathProgress, error) {
	pp := &models.PathProgress{}
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&pp.ID,
		&pp.ProfileID,
		&pp.PathID,
		&pp.Status,
		&pp.ExercisesCompleted,
		&pp.ProgressPercentage,
		&startedAt,
		&completedAt,
		&pp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan path progress: %w", err)
	}
	if startedAt.Valid {
		pp.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		pp.CompletedAt = &completedAt.Time
	}
	return pp, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
