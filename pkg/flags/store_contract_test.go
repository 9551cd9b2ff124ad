package flags

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// testStoreContract exercises the key-level write contract every Admin
// backend must honor.
func testStoreContract(t *testing.T, store Admin) {
	t.Helper()
	ctx := context.Background()

	alice, err := store.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	bob, err := store.CreateUser(ctx, "bob")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if alice.ID == bob.ID {
		t.Fatalf("expected distinct user IDs, both got %s", alice.ID)
	}

	users, err := store.Users(ctx)
	if err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	// Empty document for a known user, not an error
	doc, err := store.Get(ctx, alice.ID, "todo")
	if err != nil {
		t.Fatalf("failed to get empty document: %v", err)
	}
	if doc == nil || len(doc) != 0 {
		t.Errorf("expected empty non-nil document, got %v", doc)
	}

	// Unknown user is an explicit error on every operation
	if _, err := store.Get(ctx, "nobody", "todo"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser from Get, got %v", err)
	}
	if err := store.Patch(ctx, "nobody", "todo", "k", json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser from Patch, got %v", err)
	}
	if err := store.Remove(ctx, "nobody", "todo", "k"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser from Remove, got %v", err)
	}

	// Patch writes exactly one key
	if err := store.Patch(ctx, alice.ID, "todo", "a", json.RawMessage(`{"n":1}`)); err != nil {
		t.Fatalf("failed to patch: %v", err)
	}
	if err := store.Patch(ctx, alice.ID, "todo", "b", json.RawMessage(`{"n":2}`)); err != nil {
		t.Fatalf("failed to patch: %v", err)
	}

	doc, err = store.Get(ctx, alice.ID, "todo")
	if err != nil {
		t.Fatalf("failed to get document: %v", err)
	}
	if len(doc) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(doc))
	}

	// Patching an existing key overwrites it without touching siblings
	if err := store.Patch(ctx, alice.ID, "todo", "a", json.RawMessage(`{"n":3}`)); err != nil {
		t.Fatalf("failed to re-patch: %v", err)
	}
	doc, _ = store.Get(ctx, alice.ID, "todo")
	if string(doc["a"]) != `{"n":3}` {
		t.Errorf("expected key a to be overwritten, got %s", doc["a"])
	}
	if string(doc["b"]) != `{"n":2}` {
		t.Errorf("expected key b untouched, got %s", doc["b"])
	}

	// Namespaces are isolated
	if err := store.Patch(ctx, alice.ID, "prefs", "theme", json.RawMessage(`"dark"`)); err != nil {
		t.Fatalf("failed to patch prefs: %v", err)
	}
	doc, _ = store.Get(ctx, alice.ID, "todo")
	if len(doc) != 2 {
		t.Errorf("expected namespace isolation, todo has %d keys", len(doc))
	}

	// Users are isolated
	doc, err = store.Get(ctx, bob.ID, "todo")
	if err != nil {
		t.Fatalf("failed to get bob's document: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("expected bob's document to be empty, got %d keys", len(doc))
	}

	// Remove deletes exactly one key; removing an absent key is a no-op
	if err := store.Remove(ctx, alice.ID, "todo", "a"); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if err := store.Remove(ctx, alice.ID, "todo", "a"); err != nil {
		t.Fatalf("expected absent-key remove to succeed, got %v", err)
	}
	doc, _ = store.Get(ctx, alice.ID, "todo")
	if len(doc) != 1 {
		t.Fatalf("expected 1 key after remove, got %d", len(doc))
	}
	if _, ok := doc["b"]; !ok {
		t.Error("expected key b to survive removal of key a")
	}

	// Deleting a user removes its documents
	if err := store.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}
	if _, err := store.Get(ctx, alice.ID, "todo"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser after user deletion, got %v", err)
	}
	if err := store.DeleteUser(ctx, alice.ID); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser on double delete, got %v", err)
	}

	users, err = store.Users(ctx)
	if err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != bob.ID {
		t.Errorf("expected only bob to remain, got %v", users)
	}
}
