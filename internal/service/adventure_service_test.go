package service

import (
	"errors"
	"testing"
)

func TestPathMembership(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Bear Crawl", 10)

	path, err := env.adventure.CreatePath("Jungle Explorer", "Animal moves")
	if err != nil {
		t.Fatalf("CreatePath() error: %v", err)
	}
	if path.TotalExercises != 0 {
		t.Errorf("new path total = %d, want 0", path.TotalExercises)
	}

	if _, err := env.adventure.AddExercise(path.ID, e1.ID, 1, 1); err != nil {
		t.Fatalf("AddExercise() error: %v", err)
	}

	t.Run("position is unique per path", func(t *testing.T) {
		_, err := env.adventure.AddExercise(path.ID, e2.ID, 1, 1)
		if !errors.Is(err, ErrPositionTaken) {
			t.Errorf("error = %v, want ErrPositionTaken", err)
		}
	})

	t.Run("exercise appears at most once", func(t *testing.T) {
		_, err := env.adventure.AddExercise(path.ID, e1.ID, 2, 1)
		if !errors.Is(err, ErrExerciseInPathDup) {
			t.Errorf("error = %v, want ErrExerciseInPathDup", err)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		_, err := env.adventure.AddExercise(999999, e2.ID, 1, 1)
		if !errors.Is(err, ErrPathNotFound) {
			t.Errorf("error = %v, want ErrPathNotFound", err)
		}
	})

	t.Run("unknown exercise", func(t *testing.T) {
		_, err := env.adventure.AddExercise(path.ID, 999999, 2, 1)
		if !errors.Is(err, ErrExerciseNotFound) {
			t.Errorf("error = %v, want ErrExerciseNotFound", err)
		}
	})
}

func TestPathTotalTracksMembership(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Bear Crawl", 10)

	path, err := env.adventure.CreatePath("Jungle Explorer", "")
	if err != nil {
		t.Fatalf("CreatePath() error: %v", err)
	}

	assertTotal := func(t *testing.T, want int) {
		t.Helper()
		refreshed, _, err := env.adventure.GetPath(path.ID)
		if err != nil {
			t.Fatalf("GetPath() error: %v", err)
		}
		if refreshed.TotalExercises != want {
			t.Errorf("total exercises = %d, want %d", refreshed.TotalExercises, want)
		}
	}

	if _, err := env.adventure.AddExercise(path.ID, e1.ID, 1, 1); err != nil {
		t.Fatalf("AddExercise() error: %v", err)
	}
	assertTotal(t, 1)

	if _, err := env.adventure.AddExercise(path.ID, e2.ID, 2, 1); err != nil {
		t.Fatalf("AddExercise() error: %v", err)
	}
	assertTotal(t, 2)

	if err := env.adventure.RemoveExercise(path.ID, e1.ID); err != nil {
		t.Fatalf("RemoveExercise() error: %v", err)
	}
	assertTotal(t, 1)

	t.Run("removing a non-member fails", func(t *testing.T) {
		if err := env.adventure.RemoveExercise(path.ID, e1.ID); !errors.Is(err, ErrNotInPath) {
			t.Errorf("error = %v, want ErrNotInPath", err)
		}
	})
}

func TestPathMembershipChangeIsAtomic(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	e1 := env.createExercise(t, "Jumping Jacks", 10)

	path, err := env.adventure.CreatePath("Jungle Explorer", "")
	if err != nil {
		t.Fatalf("CreatePath() error: %v", err)
	}

	blockRefresh := func(t *testing.T) {
		t.Helper()
		_, err := env.db.Exec(`
			CREATE TRIGGER block_total_refresh
			BEFORE UPDATE OF total_exercises ON adventure_paths
			BEGIN SELECT RAISE(ABORT, 'refresh blocked'); END
		`)
		if err != nil {
			t.Fatalf("Failed to create trigger: %v", err)
		}
	}
	unblockRefresh := func(t *testing.T) {
		t.Helper()
		if _, err := env.db.Exec("DROP TRIGGER block_total_refresh"); err != nil {
			t.Fatalf("Failed to drop trigger: %v", err)
		}
	}
	assertState := func(t *testing.T, wantEntries, wantTotal int) {
		t.Helper()
		entries, err := env.adventureRepo.ListPathExercises(path.ID)
		if err != nil {
			t.Fatalf("ListPathExercises() error: %v", err)
		}
		if len(entries) != wantEntries {
			t.Errorf("entry count = %d, want %d", len(entries), wantEntries)
		}
		refreshed, _, err := env.adventure.GetPath(path.ID)
		if err != nil {
			t.Fatalf("GetPath() error: %v", err)
		}
		if refreshed.TotalExercises != wantTotal {
			t.Errorf("total exercises = %d, want %d", refreshed.TotalExercises, wantTotal)
		}
	}

	// Make the counter refresh fail so the membership insert must roll back
	// with it: neither the entry nor a stale total may survive.
	blockRefresh(t)
	if _, err := env.adventure.AddExercise(path.ID, e1.ID, 1, 1); err == nil {
		t.Fatal("AddExercise() should fail while the counter cannot be refreshed")
	}
	assertState(t, 0, 0)

	unblockRefresh(t)
	if _, err := env.adventure.AddExercise(path.ID, e1.ID, 1, 1); err != nil {
		t.Fatalf("AddExercise() error: %v", err)
	}
	assertState(t, 1, 1)

	// Same for removal: a failed refresh keeps the entry in place.
	blockRefresh(t)
	if err := env.adventure.RemoveExercise(path.ID, e1.ID); err == nil {
		t.Fatal("RemoveExercise() should fail while the counter cannot be refreshed")
	}
	assertState(t, 1, 1)

	unblockRefresh(t)
	if err := env.adventure.RemoveExercise(path.ID, e1.ID); err != nil {
		t.Fatalf("RemoveExercise() error: %v", err)
	}
	assertState(t, 0, 0)
}

func TestGetPathOrdersEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	e1 := env.createExercise(t, "Jumping Jacks", 10)
	e2 := env.createExercise(t, "Bear Crawl", 10)
	e3 := env.createExercise(t, "Squat Hops", 20)

	path, err := env.adventure.CreatePath("Jungle Explorer", "")
	if err != nil {
		t.Fatalf("CreatePath() error: %v", err)
	}

	// Insert out of order; listing must come back sorted by position
	for _, entry := range []struct {
		exerciseID int64
		position   int
	}{
		{e3.ID, 3},
		{e1.ID, 1},
		{e2.ID, 2},
	} {
		if _, err := env.adventure.AddExercise(path.ID, entry.exerciseID, entry.position, 1); err != nil {
			t.Fatalf("AddExercise() error: %v", err)
		}
	}

	_, entries, err := env.adventure.GetPath(path.ID)
	if err != nil {
		t.Fatalf("GetPath() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entry count = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Position != i+1 {
			t.Errorf("entry %d position = %d, want %d", i, entry.Position, i+1)
		}
	}
}
