package authz

import (
	"path/filepath"
	"testing"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/repository"
)

func newTestGraph(t *testing.T) (*Evaluator, *repository.ProfileRepository, *repository.RelationshipRepository) {
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

	relationships := repository.NewRelationshipRepository(db)
	profiles := repository.NewProfileRepository(db)
	return NewEvaluator(relationships), profiles, relationships
}

func TestAllowed(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	evaluator, profiles, relationships := newTestGraph(t)
	now := time.Now()

	parent, err := profiles.CreateParent("parent@example.com", "hash", "Parent", time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateParent() error: %v", err)
	}
	stranger, err := profiles.CreateParent("stranger@example.com", "hash", "Stranger", time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateParent() error: %v", err)
	}

	consented, err := profiles.CreateChild("Consented Kid", now.AddDate(-8, 0, 0), now)
	if err != nil {
		t.Fatalf("CreateChild() error: %v", err)
	}
	unconsented, err := profiles.CreateChild("Unconsented Kid", now.AddDate(-8, 0, 0), now)
	if err != nil {
		t.Fatalf("CreateChild() error: %v", err)
	}
	orphaned, err := profiles.CreateChild("Revoked Kid", now.AddDate(-8, 0, 0), now)
	if err != nil {
		t.Fatalf("CreateChild() error: %v", err)
	}

	if _, err := relationships.Create(parent.ID, consented.ID, true, now); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := relationships.Create(parent.ID, unconsented.ID, false, now); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	revoked, err := relationships.Create(parent.ID, orphaned.ID, true, now)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := relationships.Deactivate(revoked.ID); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}

	tests := []struct {
		name   string
		caller int64
		owner  int64
		op     Operation
		want   bool
	}{
		{"self read", parent.ID, parent.ID, Read, true},
		{"self write", parent.ID, parent.ID, Write, true},
		{"parent reads consented child", parent.ID, consented.ID, Read, true},
		{"parent writes consented child", parent.ID, consented.ID, Write, true},
		{"parent reads unconsented child", parent.ID, unconsented.ID, Read, true},
		{"parent cannot write without consent", parent.ID, unconsented.ID, Write, false},
		{"inactive edge grants nothing", parent.ID, orphaned.ID, Read, false},
		{"stranger denied read", stranger.ID, consented.ID, Read, false},
		{"stranger denied write", stranger.ID, consented.ID, Write, false},
		{"reverse direction denied", consented.ID, parent.ID, Read, false},
		{"unknown owner denied", parent.ID, 999999, Read, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.Allowed(tt.caller, tt.owner, tt.op)
			if err != nil {
				t.Fatalf("Allowed() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allowed(%d, %d, %v) = %v, want %v", tt.caller, tt.owner, tt.op, got, tt.want)
			}
		})
	}
}
