package service

import (
	"context"
	"errors"
	"testing"

	"fitquest/internal/models"
)

func TestWouldCreateCycle(t *testing.T) {
	// Graph: 3 requires 2, 2 requires 1
	edges := []models.Prerequisite{
		{ExerciseID: 3, RequiredExerciseID: 2},
		{ExerciseID: 2, RequiredExerciseID: 1},
	}

	tests := []struct {
		name       string
		exerciseID int64
		requiredID int64
		want       bool
	}{
		{"self edge", 1, 1, true},
		{"direct back edge", 1, 2, true},
		{"transitive back edge", 1, 3, true},
		{"forward edge already implied", 3, 1, false},
		{"new independent edge", 4, 1, false},
		{"edge into existing chain", 4, 3, false},
		{"reverse of existing edge", 2, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wouldCreateCycle(edges, tt.exerciseID, tt.requiredID)
			if got != tt.want {
				t.Errorf("wouldCreateCycle(%d -> %d) = %v, want %v", tt.exerciseID, tt.requiredID, got, tt.want)
			}
		})
	}
}

func TestAddPrerequisiteRejectsCycles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Squat Hops", 20)
	e3 := env.createExercise(t, "Burpees", 40)

	if _, err := env.catalog.AddPrerequisite(e2.ID, e1.ID, 1, 3); err != nil {
		t.Fatalf("AddPrerequisite(e2 -> e1) error: %v", err)
	}
	if _, err := env.catalog.AddPrerequisite(e3.ID, e2.ID, 1, 3); err != nil {
		t.Fatalf("AddPrerequisite(e3 -> e2) error: %v", err)
	}

	t.Run("self requirement", func(t *testing.T) {
		_, err := env.catalog.AddPrerequisite(e1.ID, e1.ID, 1, 3)
		if !errors.Is(err, ErrPrerequisiteCycle) {
			t.Errorf("error = %v, want ErrPrerequisiteCycle", err)
		}
	})

	t.Run("direct cycle", func(t *testing.T) {
		_, err := env.catalog.AddPrerequisite(e1.ID, e2.ID, 1, 3)
		if !errors.Is(err, ErrPrerequisiteCycle) {
			t.Errorf("error = %v, want ErrPrerequisiteCycle", err)
		}
	})

	t.Run("transitive cycle", func(t *testing.T) {
		_, err := env.catalog.AddPrerequisite(e1.ID, e3.ID, 1, 3)
		if !errors.Is(err, ErrPrerequisiteCycle) {
			t.Errorf("error = %v, want ErrPrerequisiteCycle", err)
		}
	})
}

func TestIsUnlocked(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	parent := env.createParent(t, "Test Parent")
	child := env.createChild(t, parent.ID, "Alex")

	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Squat Hops", 20)

	// e2 unlocks after two completions of e1 at rating 3 or better
	if _, err := env.catalog.AddPrerequisite(e2.ID, e1.ID, 2, 3); err != nil {
		t.Fatalf("AddPrerequisite() error: %v", err)
	}

	assertUnlocked := func(t *testing.T, exerciseID int64, want bool) {
		t.Helper()
		got, err := env.catalog.IsUnlocked(child.ID, exerciseID)
		if err != nil {
			t.Fatalf("IsUnlocked() error: %v", err)
		}
		if got != want {
			t.Errorf("IsUnlocked() = %v, want %v", got, want)
		}
	}

	complete := func(t *testing.T, exerciseID int64, rating int) {
		t.Helper()
		_, err := env.progress.CompleteSession(context.Background(), parent.ID, CompleteSessionInput{
			ProfileID:       child.ID,
			ExerciseID:      exerciseID,
			DurationSeconds: 120,
			QualityRating:   rating,
		})
		if err != nil {
			t.Fatalf("CompleteSession() error: %v", err)
		}
	}

	// No prerequisites means always unlocked
	assertUnlocked(t, e1.ID, true)

	// No qualifying sessions yet
	assertUnlocked(t, e2.ID, false)

	// One qualifying session is not enough
	complete(t, e1.ID, 3)
	assertUnlocked(t, e2.ID, false)

	// A low-rated session does not count toward the requirement
	complete(t, e1.ID, 2)
	assertUnlocked(t, e2.ID, false)

	// The second qualifying session unlocks it
	complete(t, e1.ID, 5)
	assertUnlocked(t, e2.ID, true)
}

func TestCompleteSessionLockedExercise(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	parent := env.createParent(t, "Test Parent")
	child := env.createChild(t, parent.ID, "Alex")

	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Squat Hops", 20)
	if _, err := env.catalog.AddPrerequisite(e2.ID, e1.ID, 1, 3); err != nil {
		t.Fatalf("AddPrerequisite() error: %v", err)
	}

	_, err := env.progress.CompleteSession(context.Background(), parent.ID, CompleteSessionInput{
		ProfileID:       child.ID,
		ExerciseID:      e2.ID,
		DurationSeconds: 60,
		QualityRating:   4,
	})
	if !errors.Is(err, ErrExerciseLocked) {
		t.Errorf("CompleteSession() on locked exercise error = %v, want ErrExerciseLocked", err)
	}

	// Nothing should have been recorded
	sessions, err := env.progress.ListSessions(parent.ID, child.ID, 10)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("rejected completion left %d ledger entries, want 0", len(sessions))
	}
}
