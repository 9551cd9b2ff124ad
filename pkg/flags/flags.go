package flags

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnknownUser is returned when an operation references a user that the
// directory does not know about.
var ErrUnknownUser = errors.New("unknown user")

// User represents an account that owns a set of flag documents.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is one namespaced flag document for a single user: a mapping from
// key to raw JSON value. Writes operate on individual keys, never on the
// document as a whole.
type Document map[string]json.RawMessage

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Directory enumerates the known users.
type Directory interface {
	// Users returns all known users. Order is not significant.
	Users(ctx context.Context) ([]User, error)
}

// Store is a per-user, namespaced key-value store with key-level write
// granularity. Patching one key never disturbs sibling keys in the same
// document, and Remove deletes exactly one key.
//
// All operations addressing an unknown user return ErrUnknownUser.
type Store interface {
	Directory

	// Get returns the user's document for a namespace. A known user with no
	// data yields an empty, non-nil document.
	Get(ctx context.Context, userID, namespace string) (Document, error)

	// Patch writes exactly one key into the user's document, creating the
	// document if necessary.
	Patch(ctx context.Context, userID, namespace, key string, value json.RawMessage) error

	// Remove deletes exactly one key from the user's document. Removing a key
	// that is absent is not an error.
	Remove(ctx context.Context, userID, namespace, key string) error
}

// Admin extends Store with user lifecycle management.
type Admin interface {
	Store

	// CreateUser registers a new user and returns it with a generated ID.
	CreateUser(ctx context.Context, name string) (User, error)

	// DeleteUser removes a user and every flag document it owns.
	DeleteUser(ctx context.Context, userID string) error
}
