package flags

import (
	"context"
	"os"
	"testing"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLite {
	t.Helper()

	store, err := NewSQLite(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

// TestSQLiteLifecycle tests database initialization and closure
func TestSQLiteLifecycle(t *testing.T) {
	store, err := NewSQLite(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestSQLiteMigrations tests that migrations create the expected tables
func TestSQLiteMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	tables := []string{"users", "user_flags"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

// TestSQLiteContract runs the shared store contract against SQLite
func TestSQLiteContract(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	testStoreContract(t, store)
}

// TestSQLiteCascadeDelete tests that deleting a user removes its flag rows
func TestSQLiteCascadeDelete(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	u, err := store.CreateUser(ctx, "carol")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := store.Patch(ctx, u.ID, "todo", "x", []byte(`{}`)); err != nil {
		t.Fatalf("failed to patch: %v", err)
	}

	if err := store.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	var count int
	err = store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_flags WHERE user_id = ?", u.ID).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count flags: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 flag rows after cascade delete, got %d", count)
	}
}

// TestMain sets up and tears down test environment
func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
