package service

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fitquest/internal/authz"
	"fitquest/internal/database"
	"fitquest/internal/models"
	"fitquest/internal/repository"
)

// testEnv wires the full service stack against a throwaway SQLite database
type testEnv struct {
	db *database.DB

	profileRepo      *repository.ProfileRepository
	relationshipRepo *repository.RelationshipRepository
	exerciseRepo     *repository.ExerciseRepository
	adventureRepo    *repository.AdventureRepository
	sessionRepo      *repository.SessionRepository
	progressRepo     *repository.ProgressRepository
	authRepo         *repository.AuthRepository

	evaluator *authz.Evaluator
	auth      *AuthService
	family    *FamilyService
	catalog   *CatalogService
	adventure *AdventureService
	progress  *ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	env := &testEnv{db: db}
	env.profileRepo = repository.NewProfileRepository(db)
	env.relationshipRepo = repository.NewRelationshipRepository(db)
	env.exerciseRepo = repository.NewExerciseRepository(db)
	env.adventureRepo = repository.NewAdventureRepository(db)
	env.sessionRepo = repository.NewSessionRepository(db)
	env.progressRepo = repository.NewProgressRepository(db)
	env.authRepo = repository.NewAuthRepository(db)

	email, err := NewEmailService("us-east-1", "", "FitQuest", "http://localhost:8080", false)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	env.evaluator = authz.NewEvaluator(env.relationshipRepo)
	env.auth = NewAuthService(db, env.profileRepo, env.progressRepo, env.authRepo, email, 24*time.Hour)
	env.family = NewFamilyService(db, env.profileRepo, env.relationshipRepo, env.progressRepo, env.evaluator)
	env.catalog = NewCatalogService(env.exerciseRepo, env.sessionRepo)
	env.adventure = NewAdventureService(db, env.adventureRepo, env.exerciseRepo)
	env.progress = NewProgressService(db, env.profileRepo, env.relationshipRepo, env.exerciseRepo,
		env.adventureRepo, env.sessionRepo, env.progressRepo, env.catalog, env.evaluator, email)

	return env
}

var testEmailSeq int

// createParent registers a parent account with a unique email
func (env *testEnv) createParent(t *testing.T, displayName string) *models.Profile {
	t.Helper()
	testEmailSeq++
	email := fmt.Sprintf("parent%d@example.com", testEmailSeq)
	parent, err := env.auth.Register(email, "password123", displayName, time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to register parent: %v", err)
	}
	return parent
}

// createChild creates a child profile aged 8 under the given parent
func (env *testEnv) createChild(t *testing.T, parentID int64, displayName string) *models.Profile {
	t.Helper()
	birthDate := time.Now().UTC().AddDate(-8, 0, 0)
	child, err := env.family.CreateChild(parentID, displayName, birthDate)
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}
	return child
}

// createExercise adds a catalog exercise with the given point value
func (env *testEnv) createExercise(t *testing.T, name string, points int) *models.Exercise {
	t.Helper()
	exercise, err := env.catalog.CreateExercise(name, "", models.DifficultyEasy, points)
	if err != nil {
		t.Fatalf("Failed to create exercise: %v", err)
	}
	return exercise
}
