package flags

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

// TestMemoryContract runs the shared store contract against the in-memory backend
func TestMemoryContract(t *testing.T) {
	testStoreContract(t, NewMemory())
}

// TestMemoryPatchCopiesValue tests that stored values do not alias caller buffers
func TestMemoryPatchCopiesValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	u, err := store.CreateUser(ctx, "dave")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	buf := []byte(`{"n":1}`)
	if err := store.Patch(ctx, u.ID, "todo", "k", buf); err != nil {
		t.Fatalf("failed to patch: %v", err)
	}

	buf[5] = '9'

	doc, err := store.Get(ctx, u.ID, "todo")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if string(doc["k"]) != `{"n":1}` {
		t.Errorf("stored value aliased caller buffer, got %s", doc["k"])
	}
}

// TestMemoryConcurrentPatches tests concurrent writers on distinct keys
func TestMemoryConcurrentPatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	u, err := store.CreateUser(ctx, "erin")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := store.Patch(ctx, u.ID, "todo", key, json.RawMessage(`{}`)); err != nil {
				t.Errorf("failed to patch %s: %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	doc, err := store.Get(ctx, u.ID, "todo")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if len(doc) != len(keys) {
		t.Errorf("expected %d keys, got %d", len(keys), len(doc))
	}
}
