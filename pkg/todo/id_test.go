package todo

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != IDLength {
			t.Fatalf("expected %d chars, got %d (%q)", IDLength, len(id), id)
		}
		for _, r := range id {
			if !strings.ContainsRune(idAlphabet, r) {
				t.Fatalf("ID %q contains %q outside the alphabet", id, r)
			}
		}
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}
