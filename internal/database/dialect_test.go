package database

import (
	"path/filepath"
	"testing"
)

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT id FROM profiles",
			want:  "SELECT id FROM profiles",
		},
		{
			name:  "single placeholder",
			query: "SELECT id FROM profiles WHERE id = ?",
			want:  "SELECT id FROM profiles WHERE id = $1",
		},
		{
			name:  "multiple placeholders",
			query: "INSERT INTO relationships (parent_id, child_id, active) VALUES (?, ?, ?)",
			want:  "INSERT INTO relationships (parent_id, child_id, active) VALUES ($1, $2, $3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewritePlaceholdersToNumbered(tt.query)
			if got != tt.want {
				t.Errorf("rewritePlaceholdersToNumbered() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialectProperties(t *testing.T) {
	tests := []struct {
		name             string
		dialect          Dialect
		driverName       string
		lastInsertID     bool
		migrationsSubdir string
	}{
		{"sqlite", NewSQLiteDialect(), "sqlite3", true, "sqlite"},
		{"postgres", NewPostgresDialect(), "postgres", false, "postgres"},
		{"mysql", NewMySQLDialect(), "mysql", true, "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driverName {
				t.Errorf("DriverName() = %q, want %q", got, tt.driverName)
			}
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsSubdir {
				t.Errorf("MigrationsSubdir() = %q, want %q", got, tt.migrationsSubdir)
			}
		})
	}
}

func TestDialectRewriteQuery(t *testing.T) {
	query := "SELECT id FROM sessions WHERE profile_id = ? AND exercise_id = ?"

	if got := NewSQLiteDialect().RewriteQuery(query); got != query {
		t.Errorf("sqlite should not rewrite placeholders, got %q", got)
	}
	if got := NewMySQLDialect().RewriteQuery(query); got != query {
		t.Errorf("mysql should not rewrite placeholders, got %q", got)
	}

	want := "SELECT id FROM sessions WHERE profile_id = $1 AND exercise_id = $2"
	if got := NewPostgresDialect().RewriteQuery(query); got != want {
		t.Errorf("postgres rewrite = %q, want %q", got, want)
	}
}

func TestInitializeAndMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Running migrations again must be a no-op
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	tables := []string{
		"profiles", "relationships", "exercises", "prerequisites",
		"adventure_paths", "path_exercises", "sessions",
		"path_progress", "aggregate_progress",
		"login_sessions", "password_reset_tokens",
	}
	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		if err := db.QueryRow(query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

func TestTransactionRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() error: %v", err)
	}

	if _, err := tx.ExecReturningID(
		"INSERT INTO profiles (display_name, birth_date, is_child) VALUES (?, ?, ?)",
		"Rolled Back", "2016-01-01", true); err != nil {
		t.Fatalf("insert in transaction failed: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled back insert left %d rows, want 0", count)
	}
}
