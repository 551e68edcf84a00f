package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
	"fitquest/internal/security"
	"fitquest/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// AuthService handles parent authentication. Only parents authenticate:
// children have no login credential and are always acted on through a
// parent-authenticated request.
type AuthService struct {
	db              *database.DB
	profileRepo     *repository.ProfileRepository
	progressRepo    *repository.ProgressRepository
	authRepo        *repository.AuthRepository
	emailService    *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, profileRepo *repository.ProfileRepository, progressRepo *repository.ProgressRepository, authRepo *repository.AuthRepository, emailService *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		db:              db,
		profileRepo:     profileRepo,
		progressRepo:    progressRepo,
		authRepo:        authRepo,
		emailService:    emailService,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new parent account
func (s *AuthService) Register(email, password, displayName string, birthDate time.Time) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	existing, err := s.profileRepo.GetProfileByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Profile and its zero aggregate row are created as one atomic unit, the
	// same way CreateChild seeds a child. Every profile has an aggregate row.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	profile, err := s.profileRepo.WithTx(tx).CreateParent(email, passwordHash, displayName, birthDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent profile: %w", err)
	}

	if err := s.progressRepo.WithTx(tx).CreateAggregate(profile.ID); err != nil {
		return nil, fmt.Errorf("failed to create aggregate progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return profile, nil
}

// Login authenticates a parent and creates a login session
func (s *AuthService) Login(email, password string) (*models.LoginSession, *models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.profileRepo.GetProfileByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil || profile.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, profile.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	return s.createSession(profile)
}

// LoginWithOAuth resolves an external identity to a parent profile, creating
// the profile on first login, and opens a login session. This is the entry
// point for the privileged identity-to-profile mapping: it runs before any
// per-row authorization and its result is carried explicitly through the
// request from then on.
func (s *AuthService) LoginWithOAuth(provider, subject, email, displayName string) (*models.LoginSession, *models.Profile, error) {
	if provider == "" || subject == "" {
		return nil, nil, ErrInvalidCredentials
	}

	profile, err := s.profileRepo.GetProfileByLogin(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve login: %w", err)
	}

	if profile == nil {
		if displayName == "" {
			displayName = email
		}

		tx, err := s.db.Begin()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		// Birth date is unknown for OAuth signups; parents are adults and the
		// age band only constrains children.
		profile, err = s.profileRepo.WithTx(tx).CreateParentOAuth(provider, subject, email, displayName, time.Time{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create oauth profile: %w", err)
		}
		if err := s.progressRepo.WithTx(tx).CreateAggregate(profile.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to create aggregate progress: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, nil, fmt.Errorf("failed to commit oauth signup: %w", err)
		}
	}

	return s.createSession(profile)
}

// ValidateSession checks if a login session is valid and returns the parent profile.
// This is phase 1 of the two-phase authorization design: the returned profile
// ID is the caller identity that all later predicate checks compare against.
func (s *AuthService) ValidateSession(sessionID string) (*models.Profile, error) {
	session, err := s.authRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.authRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	profile, err := s.profileRepo.GetProfileByID(session.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrSessionNotFound
	}

	return profile, nil
}

// Logout deletes a login session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.authRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RequestPasswordReset creates a reset token and emails it to the parent.
// Always returns nil for unknown emails so the endpoint does not leak which
// addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.profileRepo.GetProfileByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil
	}

	token := security.GenerateResetToken()
	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.authRepo.CreateResetToken(token, profile.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, profile.Email, profile.DisplayName, token); err != nil {
		log.Printf("Failed to send password reset email to %s: %v", profile.Email, err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.authRepo.GetResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if reset == nil || reset.Used || reset.IsExpired() {
		return ErrInvalidResetToken
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.profileRepo.UpdatePassword(reset.ProfileID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.authRepo.MarkResetTokenUsed(token); err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}

	return nil
}

func (s *AuthService) createSession(profile *models.Profile) (*models.LoginSession, *models.Profile, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.authRepo.CreateSession(sessionID, profile.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, profile, nil
}
