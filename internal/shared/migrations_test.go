package shared

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count > 0
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for i, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is missing up or down SQL", m.Version)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Error("expected migrations sorted by version")
		}
	}
}

func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, table := range []string{"schema_migrations", "setlists", "tracks"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	t.Run("is idempotent", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Fatalf("expected no error on second run, got %v", err)
		}
	})
}

func TestRollbackMigration(t *testing.T) {
	db := openTestDB(t)

	if err := RollbackMigration(db); err == nil {
		t.Error("expected error when no migrations applied")
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := RollbackMigration(db); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if tableExists(t, db, "setlists") || tableExists(t, db, "tracks") {
		t.Error("expected cache tables to be dropped after rollback")
	}
}

func TestStripComments(t *testing.T) {
	input := "-- leading comment\nSELECT 1; -- trailing\n\nSELECT 2;"
	want := "SELECT 1;\nSELECT 2;"
	if got := stripComments(input); got != want {
		t.Errorf("stripComments = %q, want %q", got, want)
	}
}
