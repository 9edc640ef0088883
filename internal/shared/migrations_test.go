package shared

import (
	"path/filepath"
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("LoadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one embedded migration")
		}
		for _, migration := range migrations {
			if migration.Up == "" || migration.Down == "" {
				t.Errorf("migration %d is missing up or down SQL", migration.Version)
			}
		}
	})

	t.Run("RunMigrationsCreatesSchema", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"schema_migrations", "collection_meta", "pages"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("table %s should exist: %v", table, err)
			}
		}

		// The metadata row is seeded so the loader can always read it.
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM collection_meta").Scan(&count); err != nil {
			t.Fatalf("failed to count metadata rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 seeded metadata row, got %d", count)
		}
	})

	t.Run("RunMigrationsIsIdempotent", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run should be a no-op, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM collection_meta").Scan(&count); err != nil {
			t.Fatalf("failed to count metadata rows: %v", err)
		}
		if count != 1 {
			t.Errorf("re-running migrations should not duplicate the seed row, got %d", count)
		}
	})
}
