package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// AuthRepository handles login sessions and password reset tokens
type AuthRepository struct {
	db database.DBTX
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db database.DBTX) *AuthRepository {
	return &AuthRepository{db: db}
}

// CreateSession creates a new login session
func (r *AuthRepository) CreateSession(sessionID string, profileID int64, expiresAt time.Time) (*models.LoginSession, error) {
	query := "INSERT INTO login_sessions (id, profile_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, sessionID, profileID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create login session: %w", err)
	}
	return r.GetSession(sessionID)
}

// GetSession retrieves a login session by ID
func (r *AuthRepository) GetSession(sessionID string) (*models.LoginSession, error) {
	query := "SELECT id, profile_id, expires_at, created_at FROM login_sessions WHERE id = ?"
	session := &models.LoginSession{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.ProfileID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get login session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a login session
func (r *AuthRepository) DeleteSession(sessionID string) error {
	query := "DELETE FROM login_sessions WHERE id = ?"
	if _, err := r.db.Exec(query, sessionID); err != nil {
		return fmt.Errorf("failed to delete login session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired login sessions
func (r *AuthRepository) DeleteExpiredSessions() error {
	query := "DELETE FROM login_sessions WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}

// CreateResetToken creates a password reset token
func (r *AuthRepository) CreateResetToken(token string, profileID int64, expiresAt time.Time) error {
	query := "INSERT INTO password_reset_tokens (token, profile_id, expires_at, used) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, token, profileID, expiresAt, false); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetResetToken retrieves a password reset token
func (r *AuthRepository) GetResetToken(token string) (*models.PasswordResetToken, error) {
	query := "SELECT token, profile_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?"
	reset := &models.PasswordResetToken{}
	err := r.db.QueryRow(query, token).Scan(
		&reset.Token,
		&reset.ProfileID,
		&reset.ExpiresAt,
		&reset.CreatedAt,
		&reset.Used,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return reset, nil
}

// MarkResetTokenUsed marks a reset token as consumed
func (r *AuthRepository) MarkResetTokenUsed(token string) error {
	query := "UPDATE password_reset_tokens SET used = ? WHERE token = ?"
	if _, err := r.db.Exec(query, true, token); err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}
