package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// SessionRepository handles the append-only ledger of completed exercise
// sessions. Rows are inserted and read, never updated or deleted.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *SessionRepository) WithTx(tx *database.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Insert appends a completed session to the ledger
func (r *SessionRepository) Insert(profileID, exerciseID int64, pathID *int64, completedAt time.Time, durationSeconds, qualityRating, pointsEarned int) (*models.Session, error) {
	query := `
		INSERT INTO sessions (profile_id, exercise_id, path_id, completed_at,
			duration_seconds, quality_rating, points_earned)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var pathValue interface{}
	if pathID != nil {
		pathValue = *pathID
	}
	id, err := r.db.ExecReturningID(query,
		profileID, exerciseID, pathValue, completedAt, durationSeconds, qualityRating, pointsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(sessionID int64) (*models.Session, error) {
	query := `
		SELECT id, profile_id, exercise_id, path_id, completed_at,
		       duration_seconds, quality_rating, points_earned
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	var pathID sql.NullInt64
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.ProfileID,
		&session.ExerciseID,
		&pathID,
		&session.CompletedAt,
		&session.DurationSeconds,
		&session.QualityRating,
		&session.PointsEarned,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if pathID.Valid {
		session.PathID = &pathID.Int64
	}
	return session, nil
}

// ListByProfile retrieves a profile's sessions, most recent first
func (r *SessionRepository) ListByProfile(profileID int64, limit int) ([]models.Session, error) {
	query := `
		SELECT id, profile_id, exercise_id, path_id, completed_at,
		       duration_seconds, quality_rating, points_earned
		FROM sessions
		WHERE profile_id = ?
		ORDER BY completed_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		var pathID sql.NullInt64
		if err := rows.Scan(
			&session.ID,
			&session.ProfileID,
			&session.ExerciseID,
			&pathID,
			&session.CompletedAt,
			&session.DurationSeconds,
			&session.QualityRating,
			&session.PointsEarned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if pathID.Valid {
			session.PathID = &pathID.Int64
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CountQualifying counts a profile's sessions against one exercise at or
// above a minimum quality rating. Used by the unlock check.
func (r *SessionRepository) CountQualifying(profileID, exerciseID int64, minRating int) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE profile_id = ? AND exercise_id = ? AND quality_rating >= ?
	`
	if err := r.db.QueryRow(query, profileID, exerciseID, minRating).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count qualifying sessions: %w", err)
	}
	return count, nil
}

// CountDistinctPathExercisesCompleted counts how many distinct exercises of
// a path appear in the profile's session ledger
func (r *SessionRepository) CountDistinctPathExercisesCompleted(profileID, pathID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(DISTINCT s.exercise_id)
		FROM sessions s
		JOIN path_exercises pe ON pe.exercise_id = s.exercise_id AND pe.path_id = ?
		WHERE s.profile_id = ?
	`
	if err := r.db.QueryRow(query, pathID, profileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed path exercises: %w", err)
	}
	return count, nil
}
