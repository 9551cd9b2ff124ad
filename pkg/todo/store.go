package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/tabulist/tabulist/pkg/flags"
	"github.com/tabulist/tabulist/pkg/telemetry"
)

// ErrUnknownUser is returned when an operation addresses a user the flag
// store does not know about. It aliases the flag-store sentinel so callers
// can test either package's error.
var ErrUnknownUser = flags.ErrUnknownUser

// ErrNotFound is returned when a todo ID does not exist in any user's
// collection.
var ErrNotFound = errors.New("todo not found")

// ErrIDConflict is returned by the aggregation view when the same todo ID
// appears in more than one user's collection. IDs are generated from a
// 62^16 token space, so a conflict means corrupted or hand-edited data.
var ErrIDConflict = errors.New("todo id conflict")

// Store exposes create/read/update/delete operations over todo records,
// delegating durable storage to a per-user flag store. It holds no state of
// its own: every read goes to the flag store, and the global view is
// recomputed on each call.
type Store struct {
	flags  flags.Store
	newID  func() string
	log    *telemetry.Logger
	metric *telemetry.Metrics
	tracer *telemetry.Tracer
	events *telemetry.EventPublisher
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc overrides the ID generator. Used by tests that need
// deterministic IDs.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithLogger attaches a logger to the store.
func WithLogger(log *telemetry.Logger) Option {
	return func(s *Store) { s.log = log.NewComponentLogger("todo") }
}

// WithMetrics attaches operation metrics to the store.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Store) { s.metric = m }
}

// WithTracer attaches a tracer; every store operation runs inside a span.
func WithTracer(tr *telemetry.Tracer) Option {
	return func(s *Store) { s.tracer = tr }
}

// WithEvents attaches an event publisher; the store announces every
// successful create, update, and delete.
func WithEvents(ep *telemetry.EventPublisher) Option {
	return func(s *Store) { s.events = ep }
}

// New creates a Store backed by the given flag store.
func New(fs flags.Store, opts ...Option) *Store {
	s := &Store{
		flags: fs,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// startOp opens a span for a store operation and returns a finish function
// that records duration, errors, and span status.
func (s *Store) startOp(ctx context.Context, op, userID string) (context.Context, func(error)) {
	timer := telemetry.NewTimer()

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.StartStoreSpan(ctx, op, userID)
	}

	return ctx, func(err error) {
		if s.metric != nil {
			s.metric.ObserveStoreOp(op, timer.Duration())
			if err != nil {
				s.metric.RecordStoreError(op)
			}
		}
		if span != nil {
			if err != nil {
				telemetry.RecordError(span, err)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
		}
	}
}

// All returns the union of every known user's collection, keyed by todo ID.
// Users with no stored todos contribute nothing. A todo ID owned by more
// than one user yields ErrIDConflict rather than a silent overwrite.
func (s *Store) All(ctx context.Context) (_ map[string]ToDo, err error) {
	ctx, finish := s.startOp(ctx, "all", "")
	defer func() { finish(err) }()

	users, err := s.flags.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate users: %w", err)
	}

	all := make(map[string]ToDo)
	for _, u := range users {
		col, err := s.ForUser(ctx, u.ID)
		if errors.Is(err, ErrUnknownUser) {
			// User removed between enumeration and read
			continue
		}
		if err != nil {
			return nil, err
		}
		for id, td := range col {
			if _, dup := all[id]; dup {
				return nil, fmt.Errorf("todo %s owned by more than one user: %w", id, ErrIDConflict)
			}
			all[id] = td
		}
	}
	return all, nil
}

// ForUser returns one user's collection, keyed by todo ID. A known user with
// no todos yields an empty non-nil map; an unknown user yields
// ErrUnknownUser.
func (s *Store) ForUser(ctx context.Context, userID string) (_ map[string]ToDo, err error) {
	ctx, finish := s.startOp(ctx, "for_user", userID)
	defer func() { finish(err) }()

	doc, err := s.flags.Get(ctx, userID, Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to read todos for user %s: %w", userID, err)
	}

	col := make(map[string]ToDo, len(doc))
	for id, raw := range doc {
		var td ToDo
		if err := json.Unmarshal(raw, &td); err != nil {
			return nil, fmt.Errorf("failed to decode todo %s: %w", id, err)
		}
		col[id] = td
	}
	return col, nil
}

// Create assigns a fresh ID and the owning user to the draft and persists
// the record as a single-key patch, leaving the user's other todos
// untouched. Done defaults to false unless the draft sets it.
func (s *Store) Create(ctx context.Context, userID string, draft Draft) (_ ToDo, err error) {
	ctx, finish := s.startOp(ctx, "create", userID)
	defer func() { finish(err) }()

	if err = draft.Validate(); err != nil {
		return ToDo{}, err
	}

	td := ToDo{
		ID:     s.newID(),
		UserID: userID,
		Label:  draft.Label,
		Done:   draft.Done,
	}

	if err = s.patch(ctx, td); err != nil {
		return ToDo{}, err
	}

	if s.log != nil {
		s.log.WithUserID(userID).WithToDoID(td.ID).Debug("Created todo")
	}
	if s.metric != nil {
		s.metric.RecordToDoCreated(userID)
	}
	if s.events != nil {
		_ = s.events.PublishToDoCreated(userID, td.ID, td.Label)
	}
	return td, nil
}

// Update replaces the record stored at id with the given record. This is a
// full-record replace, not a field-level merge: fields absent from the
// replacement are dropped. ID and UserID are normalized to the stored
// record's identity regardless of what the caller supplies. An unknown ID
// yields ErrNotFound and mutates nothing.
func (s *Store) Update(ctx context.Context, id string, record ToDo) (_ ToDo, err error) {
	ctx, finish := s.startOp(ctx, "update", "")
	defer func() { finish(err) }()

	current, err := s.find(ctx, id)
	if err != nil {
		return ToDo{}, err
	}

	record.ID = current.ID
	record.UserID = current.UserID

	if err = s.patch(ctx, record); err != nil {
		return ToDo{}, err
	}

	if s.log != nil {
		s.log.WithUserID(record.UserID).WithToDoID(id).Debug("Updated todo")
	}
	if s.metric != nil {
		s.metric.RecordToDoUpdated(record.UserID)
	}
	if s.events != nil {
		_ = s.events.PublishToDoUpdated(record.UserID, id)
	}
	return record, nil
}

// ReplaceForUser bulk-patches a subset of one user's collection. Each entry
// is written as its own key with identity normalized to the map key and the
// target user; keys not named are untouched.
func (s *Store) ReplaceForUser(ctx context.Context, userID string, todos map[string]ToDo) (err error) {
	ctx, finish := s.startOp(ctx, "replace_for_user", userID)
	defer func() { finish(err) }()

	for id, td := range todos {
		td.ID = id
		td.UserID = userID
		if err = s.patch(ctx, td); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes exactly one todo from its owner's collection. An unknown ID
// yields ErrNotFound and mutates nothing.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	ctx, finish := s.startOp(ctx, "delete", "")
	defer func() { finish(err) }()

	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err = s.flags.Remove(ctx, current.UserID, Namespace, id); err != nil {
		return fmt.Errorf("failed to delete todo %s: %w", id, err)
	}

	if s.log != nil {
		s.log.WithUserID(current.UserID).WithToDoID(id).Debug("Deleted todo")
	}
	if s.metric != nil {
		s.metric.RecordToDoDeleted(current.UserID)
	}
	if s.events != nil {
		_ = s.events.PublishToDoDeleted(current.UserID, id)
	}
	return nil
}

// find resolves a todo ID to its current record via the aggregation view.
func (s *Store) find(ctx context.Context, id string) (ToDo, error) {
	all, err := s.All(ctx)
	if err != nil {
		return ToDo{}, err
	}
	td, ok := all[id]
	if !ok {
		return ToDo{}, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return td, nil
}

// patch persists one record as a single-key write into its owner's document.
func (s *Store) patch(ctx context.Context, td ToDo) error {
	raw, err := json.Marshal(td)
	if err != nil {
		return fmt.Errorf("failed to encode todo %s: %w", td.ID, err)
	}
	if err := s.flags.Patch(ctx, td.UserID, Namespace, td.ID, raw); err != nil {
		return fmt.Errorf("failed to store todo %s: %w", td.ID, err)
	}
	return nil
}
