package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"fitquest/internal/authz"
	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
	"fitquest/internal/validation"
)

var (
	ErrExerciseLocked = errors.New("exercise is locked")
	ErrChildNotLinked = errors.New("child has no active relationship")
)

// ProgressService runs the progression pipeline. A session completion and
// everything derived from it (path progress recomputation, aggregate totals)
// commit or roll back as a single transaction, so a partially applied session
// can never be observed.
type ProgressService struct {
	db               *database.DB
	profileRepo      *repository.ProfileRepository
	relationshipRepo *repository.RelationshipRepository
	exerciseRepo     *repository.ExerciseRepository
	adventureRepo    *repository.AdventureRepository
	sessionRepo      *repository.SessionRepository
	progressRepo     *repository.ProgressRepository
	catalog          *CatalogService
	evaluator        *authz.Evaluator
	emailService     *EmailService
}

// NewProgressService creates a new progress service
func NewProgressService(db *database.DB, profileRepo *repository.ProfileRepository, relationshipRepo *repository.RelationshipRepository, exerciseRepo *repository.ExerciseRepository, adventureRepo *repository.AdventureRepository, sessionRepo *repository.SessionRepository, progressRepo *repository.ProgressRepository, catalog *CatalogService, evaluator *authz.Evaluator, emailService *EmailService) *ProgressService {
	return &ProgressService{
		db:               db,
		profileRepo:      profileRepo,
		relationshipRepo: relationshipRepo,
		exerciseRepo:     exerciseRepo,
		adventureRepo:    adventureRepo,
		sessionRepo:      sessionRepo,
		progressRepo:     progressRepo,
		catalog:          catalog,
		evaluator:        evaluator,
		emailService:     emailService,
	}
}

// CompleteSessionInput carries the parameters of one session completion
type CompleteSessionInput struct {
	ProfileID       int64 // owner of the session (the child, usually)
	ExerciseID      int64
	PathID          *int64
	DurationSeconds int
	QualityRating   int
}

// CompleteSession appends a session to the ledger and applies every
// downstream effect in one transaction: unlock gate, path progress
// recomputation for each path containing the exercise, and the aggregate
// point/streak update. callerProfileID is the already-resolved identity of
// the authenticated parent making the request.
func (s *ProgressService) CompleteSession(ctx context.Context, callerProfileID int64, input CompleteSessionInput) (*models.Session, error) {
	if err := validation.ValidateQualityRating(input.QualityRating); err != nil {
		return nil, err
	}
	if input.DurationSeconds < 0 {
		return nil, validation.ValidationError{Field: "duration_seconds", Message: "duration must not be negative"}
	}

	allowed, err := s.evaluator.Allowed(callerProfileID, input.ProfileID, authz.Write)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	owner, err := s.profileRepo.GetProfileByID(input.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if owner == nil {
		return nil, ErrNotFound
	}

	// Session data is only writable for a child with at least one active
	// relationship. The authz check above already proves one exists when the
	// caller is a parent of the child; this guards the self-write path.
	if owner.IsChild {
		linked, err := s.relationshipRepo.ChildHasActiveRelationship(owner.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check child relationships: %w", err)
		}
		if !linked {
			return nil, ErrChildNotLinked
		}
	}

	if input.PathID != nil {
		path, err := s.adventureRepo.GetPathByID(*input.PathID)
		if err != nil {
			return nil, fmt.Errorf("failed to get path: %w", err)
		}
		if path == nil {
			return nil, ErrPathNotFound
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exercise, err := s.exerciseRepo.WithTx(tx).GetByID(input.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	if exercise == nil {
		return nil, ErrExerciseNotFound
	}

	unlocked, err := s.catalog.isUnlockedInTx(tx, input.ProfileID, input.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check unlock state: %w", err)
	}
	if !unlocked {
		return nil, ErrExerciseLocked
	}

	now := time.Now()
	points := calculatePoints(exercise.AdventurePoints, input.QualityRating)

	session, err := s.sessionRepo.WithTx(tx).Insert(
		input.ProfileID, input.ExerciseID, input.PathID, now,
		input.DurationSeconds, input.QualityRating, points)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	// Recompute progress for every path that contains this exercise, not
	// just the one the session was started from.
	pathIDs, err := s.adventureRepo.WithTx(tx).ListPathIDsContaining(input.ExerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list affected paths: %w", err)
	}
	var completedPaths []int64
	for _, pathID := range pathIDs {
		progress, err := s.recomputePathProgress(tx, input.ProfileID, pathID, now)
		if err != nil {
			return nil, err
		}
		if progress.Status == models.PathStatusCompleted && progress.CompletedAt != nil && progress.CompletedAt.Equal(now) {
			completedPaths = append(completedPaths, pathID)
		}
	}

	if err := s.applyToAggregate(tx, input.ProfileID, points, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}

	// Notification is best-effort and happens outside the transaction
	for _, pathID := range completedPaths {
		s.notifyPathCompleted(ctx, callerProfileID, owner, pathID)
	}

	return session, nil
}

// RecomputePathProgress recomputes one profile's progress for one path from
// the session ledger. Exposed for membership-change repair; the completion
// pipeline calls the transactional form directly. Recomputation is
// idempotent: the same ledger always produces the same row.
func (s *ProgressService) RecomputePathProgress(profileID, pathID int64) (*models.PathProgress, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	progress, err := s.recomputePathProgress(tx, profileID, pathID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recompute: %w", err)
	}
	return progress, nil
}

func (s *ProgressService) recomputePathProgress(tx *database.Tx, profileID, pathID int64, now time.Time) (*models.PathProgress, error) {
	path, err := s.adventureRepo.WithTx(tx).GetPathByID(pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to get path: %w", err)
	}
	if path == nil {
		return nil, ErrPathNotFound
	}

	completed, err := s.sessionRepo.WithTx(tx).CountDistinctPathExercisesCompleted(profileID, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to count path completions: %w", err)
	}

	percentage := 0.0
	if path.TotalExercises > 0 {
		percentage = float64(completed) / float64(path.TotalExercises) * 100
	}

	progressRepo := s.progressRepo.WithTx(tx)
	progress, err := progressRepo.GetPathProgress(profileID, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to get path progress: %w", err)
	}

	fresh := progress == nil
	if fresh {
		progress = &models.PathProgress{
			ProfileID: profileID,
			PathID:    pathID,
			Status:    models.PathStatusAvailable,
		}
	}

	progress.ExercisesCompleted = completed
	progress.ProgressPercentage = percentage

	// Status transitions. Completion is one-way: once a path is completed
	// its status and completion timestamp never revert, even if membership
	// later grows.
	switch {
	case progress.Status == models.PathStatusCompleted:
		// stays completed
	case percentage >= 100 && path.TotalExercises > 0:
		progress.Status = models.PathStatusCompleted
		if progress.StartedAt == nil {
			progress.StartedAt = &now
		}
		if progress.CompletedAt == nil {
			progress.CompletedAt = &now
		}
	case percentage > 0:
		progress.Status = models.PathStatusInProgress
		if progress.StartedAt == nil {
			progress.StartedAt = &now
		}
	}

	if fresh {
		if err := progressRepo.InsertPathProgress(progress); err != nil {
			return nil, err
		}
	} else {
		if err := progressRepo.UpdatePathProgress(progress); err != nil {
			return nil, err
		}
	}
	return progress, nil
}

// applyToAggregate folds the session into the aggregate row inside the
// transaction. Totals are incremented in place; the streak is recomputed
// from the last session date read under the same transaction.
func (s *ProgressService) applyToAggregate(tx *database.Tx, profileID int64, points int, sessionTime time.Time) error {
	progressRepo := s.progressRepo.WithTx(tx)

	aggregate, err := progressRepo.GetAggregate(profileID)
	if err != nil {
		return fmt.Errorf("failed to get aggregate: %w", err)
	}
	if aggregate == nil {
		return fmt.Errorf("missing aggregate progress row for profile %d", profileID)
	}

	current, longest := nextStreak(aggregate.LastSessionDate, aggregate.CurrentStreak, aggregate.LongestStreak, sessionTime)

	if err := progressRepo.ApplySession(profileID, points, current, longest, sessionTime); err != nil {
		return err
	}
	return nil
}

// GetAggregate retrieves aggregate totals the caller may read
func (s *ProgressService) GetAggregate(callerProfileID, profileID int64) (*models.AggregateProgress, error) {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	aggregate, err := s.progressRepo.GetAggregate(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}
	if aggregate == nil {
		return nil, ErrNotFound
	}
	return aggregate, nil
}

// GetPathProgress retrieves one path progress row the caller may read
func (s *ProgressService) GetPathProgress(callerProfileID, profileID, pathID int64) (*models.PathProgress, error) {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	progress, err := s.progressRepo.GetPathProgress(profileID, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to get path progress: %w", err)
	}
	if progress == nil {
		return nil, ErrNotFound
	}
	return progress, nil
}

// ListPathProgress retrieves all path progress rows the caller may read
func (s *ProgressService) ListPathProgress(callerProfileID, profileID int64) ([]models.PathProgress, error) {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	progress, err := s.progressRepo.ListPathProgress(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list path progress: %w", err)
	}
	return progress, nil
}

// ListSessions retrieves a profile's recent sessions if the caller may read them
func (s *ProgressService) ListSessions(callerProfileID, profileID int64, limit int) ([]models.Session, error) {
	allowed, err := s.evaluator.Allowed(callerProfileID, profileID, authz.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate access: %w", err)
	}
	if !allowed {
		return nil, ErrNotFound
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	sessions, err := s.sessionRepo.ListByProfile(profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *ProgressService) notifyPathCompleted(ctx context.Context, callerProfileID int64, owner *models.Profile, pathID int64) {
	parent, err := s.profileRepo.GetProfileByID(callerProfileID)
	if err != nil || parent == nil || parent.Email == "" {
		return
	}
	path, err := s.adventureRepo.GetPathByID(pathID)
	if err != nil || path == nil {
		return
	}
	if err := s.emailService.SendPathCompletedEmail(ctx, parent.Email, parent.DisplayName, owner.DisplayName, path.Name); err != nil {
		log.Printf("Failed to send path completion email to %s: %v", parent.Email, err)
	}
}

// calculatePoints converts an exercise's point value and the session's
// quality rating into awarded points: round(points * rating / 5)
func calculatePoints(adventurePoints, qualityRating int) int {
	return int(math.Round(float64(adventurePoints) * float64(qualityRating) / 5.0))
}

// nextStreak computes the new current and longest streak after a session.
// The streak increments when the previous session date is exactly the prior
// calendar day, stays put on a same-day session, and resets to 1 otherwise.
func nextStreak(lastSessionDate *time.Time, currentStreak, longestStreak int, sessionTime time.Time) (int, int) {
	sessionDay := dateOf(sessionTime)

	var current int
	switch {
	case lastSessionDate == nil:
		current = 1
	case dateOf(*lastSessionDate).Equal(sessionDay):
		current = currentStreak
		if current == 0 {
			current = 1
		}
	case dateOf(*lastSessionDate).AddDate(0, 0, 1).Equal(sessionDay):
		current = currentStreak + 1
	default:
		current = 1
	}

	longest := longestStreak
	if current > longest {
		longest = current
	}
	return current, longest
}

// dateOf truncates a timestamp to its UTC calendar day
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
