package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a change announcement in the tabulist system. Events are
// how interested components (the HTTP server, CLI watchers, audit sinks)
// learn about todo and user mutations without polling the store.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// UserID is the owning user, if applicable.
	UserID string `json:"user_id,omitempty"`

	// ToDoID is the affected todo, if applicable.
	ToDoID string `json:"todo_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeToDoCreated = "todo.created"
	EventTypeToDoUpdated = "todo.updated"
	EventTypeToDoDeleted = "todo.deleted"
	EventTypeUserCreated = "user.created"
	EventTypeUserRemoved = "user.removed"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliverEvent(event)
	return nil
}

// PublishToDoCreated publishes a todo created event.
func (ep *EventPublisher) PublishToDoCreated(userID, todoID, label string) error {
	return ep.Publish(Event{
		Type:    EventTypeToDoCreated,
		UserID:  userID,
		ToDoID:  todoID,
		Message: fmt.Sprintf("Todo %s created for user %s", todoID, userID),
		Data: map[string]interface{}{
			"label": label,
		},
	})
}

// PublishToDoUpdated publishes a todo updated event.
func (ep *EventPublisher) PublishToDoUpdated(userID, todoID string) error {
	return ep.Publish(Event{
		Type:    EventTypeToDoUpdated,
		UserID:  userID,
		ToDoID:  todoID,
		Message: fmt.Sprintf("Todo %s replaced for user %s", todoID, userID),
	})
}

// PublishToDoDeleted publishes a todo deleted event.
func (ep *EventPublisher) PublishToDoDeleted(userID, todoID string) error {
	return ep.Publish(Event{
		Type:    EventTypeToDoDeleted,
		UserID:  userID,
		ToDoID:  todoID,
		Message: fmt.Sprintf("Todo %s deleted for user %s", todoID, userID),
	})
}

// PublishUserCreated publishes a user created event.
func (ep *EventPublisher) PublishUserCreated(userID, name string) error {
	return ep.Publish(Event{
		Type:    EventTypeUserCreated,
		UserID:  userID,
		Message: fmt.Sprintf("User %s (%s) created", name, userID),
		Data: map[string]interface{}{
			"name": name,
		},
	})
}

// PublishUserRemoved publishes a user removed event.
func (ep *EventPublisher) PublishUserRemoved(userID string) error {
	return ep.Publish(Event{
		Type:    EventTypeUserRemoved,
		UserID:  userID,
		Message: fmt.Sprintf("User %s removed", userID),
	})
}

// Subscribe adds a new event subscriber. A nil filter receives every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// processEvents processes events from the buffer asynchronously.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Flush remaining events before shutting down
			if len(batch) > 0 {
				ep.flushBatch(batch)
			}
			return
		}
	}
}

// flushBatch delivers a batch of events to subscribers.
func (ep *EventPublisher) flushBatch(events []Event) {
	for _, event := range events {
		ep.deliverEvent(event)
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled || ep.cancel == nil {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByUserID creates a filter that only allows events for a specific user.
func FilterByUserID(userID string) EventFilter {
	return func(event Event) bool {
		return event.UserID == userID
	}
}
