package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fitquest/internal/authz"
	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
	"fitquest/internal/validation"
)

var (
	// ErrNotFound is returned both when a row does not exist and when the
	// caller is not authorized to see it. The two cases are deliberately
	// indistinguishable so a denial never reveals another family's data.
	ErrNotFound = errors.New("not found")

	ErrNotAParent           = errors.New("profile is not a parent")
	ErrNotAChild            = errors.New("profile is not a child")
	ErrChildHasLogin        = errors.New("child profile must not carry a login reference")
	ErrRelationshipExists   = errors.New("relationship already exists")
	ErrRelationshipNotFound = errors.New("relationship not found")
)

// FamilyService manages the relationship graph and child profiles
type FamilyService struct {
	db               *database.DB
	profileRepo      *repository.ProfileRepository
	relationshipRepo *repository.RelationshipRepository
	progressRepo     *repository.ProgressRepository
	evaluator        *authz.Evaluator
}

// NewFamilyService creates a new family service
func NewFamilyService(db *database.DB, profileRepo *repository.ProfileRepository, relationshipRepo *repository.RelationshipRepository, progressRepo *repository.ProgressRepository, evaluator *authz.Evaluator) *FamilyService {
	return &FamilyService{
		db:               db,
		profileRepo:      profileRepo,
		relationshipRepo: relationshipRepo,
		progressRepo:     progressRepo,
		evaluator:        evaluator,
	}
}

// CreateChild creates a child profile, its parent relationship and its
// zero-valued aggregate progress as one atomic unit. This is the single
// privileged bypass of the per-row predicate: at the moment the child row is
// inserted no relationship exists yet, so the normal predicate could not
// grant access. The operation is only reachable behind parent
// authentication, and callerProfileID must be the authenticated parent.
//
// Child display names are not unique; creating a second child with the same
// name produces a second independent profile.
func (s *FamilyService) CreateChild(callerProfileID int64, displayName string, birthDate time.Time) (*models.Profile, error) {
	displayName = strings.TrimSpace(displayName)
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := validation.ValidateChildBirthDate(birthDate, now); err != nil {
		return nil, err
	}

	parent, err := s.profileRepo.GetProfileByID(callerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent profile: %w", err)
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	if parent.IsChild {
		return nil, ErrNotAParent
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	child, err := s.profileRepo.WithTx(tx).CreateChild(displayName, birthDate, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create child profile: %w", err)
	}

	if _, err := s.relationshipRepo.WithTx(tx).Create(parent.ID, child.ID, true, now); err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}

	if err := s.progressRepo.WithTx(tx).CreateAggregate(child.ID); err != nil {
		return nil, fmt.Errorf("failed to create aggregate progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit child creation: %w", err)
	}

	return child, nil
}

// CreateRelationship grants another parent access to a child the caller
// already has an active relationship to. Invariants enforced here: the
// parent side must not be a child profile, the child side must be a child
// profile with no login reference, and the (parent, child) pair is unique.
func (s *FamilyService) CreateRelationship(callerProfileID, parentID, childID int64) (*models.Relationship, error) {
	if parentID == childID {
		return nil, validation.ValidationError{Field: "child_id", Message: "parent and child must differ"}
	}

	// Caller must already have access to the child
	allowed, err := s.evaluator.Allowed(callerProfileID, childID, authz.Write)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	parent, err := s.profileRepo.GetProfileByID(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent profile: %w", err)
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	if parent.IsChild {
		return nil, ErrNotAParent
	}

	child, err := s.profileRepo.GetProfileByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child profile: %w", err)
	}
	if child == nil {
		return nil, ErrNotFound
	}
	if !child.IsChild {
		return nil, ErrNotAChild
	}
	if child.HasLogin() {
		return nil, ErrChildHasLogin
	}

	exists, err := s.relationshipRepo.Exists(parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing relationship: %w", err)
	}
	if exists {
		return nil, ErrRelationshipExists
	}

	rel, err := s.relationshipRepo.Create(parentID, childID, true, time.Now())
	if err != nil {
		// A concurrent create for the same pair loses the race on the unique
		// constraint; report it the same as the pre-check.
		return nil, ErrRelationshipExists
	}
	return rel, nil
}

// DeactivateRelationship marks a relationship inactive. The caller must be
// the parent on the edge or another parent with active access to the child.
func (s *FamilyService) DeactivateRelationship(callerProfileID, relationshipID int64) error {
	rel, err := s.relationshipRepo.GetByID(relationshipID)
	if err != nil {
		return fmt.Errorf("failed to get relationship: %w", err)
	}
	if rel == nil {
		return ErrNotFound
	}

	if rel.ParentID != callerProfileID {
		allowed, err := s.evaluator.Allowed(callerProfileID, rel.ChildID, authz.Write)
		if err != nil {
			return fmt.Errorf("failed to evaluate access: %w", err)
		}
		if !allowed {
			return ErrNotFound
		}
	}

	if err := s.relationshipRepo.Deactivate(relationshipID); err != nil {
		return fmt.Errorf("failed to deactivate relationship: %w", err)
	}
	return nil
}

// ListChildren retrieves all child profiles the caller has active access to
func (s *FamilyService) ListChildren(callerProfileID int64) ([]models.Profile, error) {
	children, err := s.relationshipRepo.ListChildren(callerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// GetProfile retrieves a profile the caller is allowed to read.
// Missing and forbidden profiles are indistinguishable.
func (s *FamilyService) GetProfile(callerProfileID, profileID int64) (*models.Profile, error) {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	profile, err := s.profileRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// UpdatePrivacy updates privacy preferences on a profile the caller may write
func (s *FamilyService) UpdatePrivacy(callerProfileID, profileID int64, shareProgress, showOnLeaderboard bool) error {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Write)
	if err != nil {
		return fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return ErrNotFound
	}

	if err := s.profileRepo.UpdatePrivacy(profileID, shareProgress, showOnLeaderboard); err != nil {
		return fmt.Errorf("failed to update privacy: %w", err)
	}
	return nil
}
