package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ProfileRepository) WithTx(tx *database.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

const profileColumns = `id, display_name, birth_date, is_child, email, password_hash,
	oauth_provider, oauth_subject, consent_given, consent_at,
	share_progress, show_on_leaderboard, created_at, updated_at`

// CreateParent creates a parent profile with an email/password credential
func (r *ProfileRepository) CreateParent(email, passwordHash, displayName string, birthDate time.Time) (*models.Profile, error) {
	now := time.Now()
	query := `
		INSERT INTO profiles (display_name, birth_date, is_child, email, password_hash,
			consent_given, consent_at, share_progress, show_on_leaderboard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		displayName, birthDate, false, email, passwordHash, true, now, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent profile: %w", err)
	}
	return r.GetProfileByID(id)
}

// CreateParentOAuth creates a parent profile backed by an external login reference
func (r *ProfileRepository) CreateParentOAuth(provider, subject, email, displayName string, birthDate time.Time) (*models.Profile, error) {
	now := time.Now()
	query := `
		INSERT INTO profiles (display_name, birth_date, is_child, email,
			oauth_provider, oauth_subject, consent_given, consent_at,
			share_progress, show_on_leaderboard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		displayName, birthDate, false, email, provider, subject, true, now, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth profile: %w", err)
	}
	return r.GetProfileByID(id)
}

// CreateChild creates a child profile. Child profiles never carry a login
// credential; all access to their rows goes through a parent relationship.
func (r *ProfileRepository) CreateChild(displayName string, birthDate time.Time, consentAt time.Time) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (display_name, birth_date, is_child,
			consent_given, consent_at, share_progress, show_on_leaderboard)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		displayName, birthDate, true, true, consentAt, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create child profile: %w", err)
	}
	return r.GetProfileByID(id)
}

// GetProfileByID retrieves a profile by ID
func (r *ProfileRepository) GetProfileByID(profileID int64) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	return r.scanProfile(r.db.QueryRow(query, profileID))
}

// GetProfileByEmail retrieves a parent profile by email
func (r *ProfileRepository) GetProfileByEmail(email string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE email = ? AND is_child = ?"
	return r.scanProfile(r.db.QueryRow(query, email, false))
}

// GetProfileByLogin resolves an external login reference to a profile.
// This is the privileged caller-resolution lookup: it runs once per request,
// before any authorization predicate is evaluated, and never consults the
// authorization layer itself.
func (r *ProfileRepository) GetProfileByLogin(provider, subject string) (*models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles WHERE oauth_provider = ? AND oauth_subject = ?"
	return r.scanProfile(r.db.QueryRow(query, provider, subject))
}

// UpdatePrivacy updates a profile's privacy preferences
func (r *ProfileRepository) UpdatePrivacy(profileID int64, shareProgress, showOnLeaderboard bool) error {
	query := `
		UPDATE profiles
		SET share_progress = ?, show_on_leaderboard = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, shareProgress, showOnLeaderboard, profileID); err != nil {
		return fmt.Errorf("failed to update privacy preferences: %w", err)
	}
	return nil
}

// UpdatePassword updates a parent profile's password hash
func (r *ProfileRepository) UpdatePassword(profileID int64, passwordHash string) error {
	query := "UPDATE profiles SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, passwordHash, profileID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// scanProfile scans a single profile row, returning nil when no row matched
func (r *ProfileRepository) scanProfile(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	var email, passwordHash, oauthProvider, oauthSubject sql.NullString
	var consentAt sql.NullTime

	err := row.Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.BirthDate,
		&profile.IsChild,
		&email,
		&passwordHash,
		&oauthProvider,
		&oauthSubject,
		&profile.ConsentGiven,
		&consentAt,
		&profile.ShareProgress,
		&profile.ShowOnLeaderboard,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile.Email = email.String
	profile.PasswordHash = passwordHash.String
	profile.OAuthProvider = oauthProvider.String
	profile.OAuthSubject = oauthSubject.String
	if consentAt.Valid {
		profile.ConsentAt = &consentAt.Time
	}

	return profile, nil
}
