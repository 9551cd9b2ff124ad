package flags

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Admin implementation. It honors the same key-level
// write contract as the SQLite backend and is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
	// docs is keyed by user ID, then namespace.
	docs map[string]map[string]Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]User),
		docs:  make(map[string]map[string]Document),
	}
}

// Users returns all known users.
func (m *Memory) Users(_ context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

// CreateUser registers a new user with a generated ID.
func (m *Memory) CreateUser(_ context.Context, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := User{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	return u, nil
}

// DeleteUser removes a user and all of its documents.
func (m *Memory) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return ErrUnknownUser
	}
	delete(m.users, userID)
	delete(m.docs, userID)
	return nil
}

// Get returns a copy of the user's document for a namespace.
func (m *Memory) Get(_ context.Context, userID, namespace string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.users[userID]; !ok {
		return nil, ErrUnknownUser
	}
	doc := m.docs[userID][namespace]
	if doc == nil {
		return Document{}, nil
	}
	return doc.Clone(), nil
}

// Patch writes one key into the user's document.
func (m *Memory) Patch(_ context.Context, userID, namespace, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return ErrUnknownUser
	}
	byNS, ok := m.docs[userID]
	if !ok {
		byNS = make(map[string]Document)
		m.docs[userID] = byNS
	}
	doc, ok := byNS[namespace]
	if !ok {
		doc = Document{}
		byNS[namespace] = doc
	}
	doc[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Remove deletes one key from the user's document.
func (m *Memory) Remove(_ context.Context, userID, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return ErrUnknownUser
	}
	if doc, ok := m.docs[userID][namespace]; ok {
		delete(doc, key)
	}
	return nil
}
