package events

import (
	"context"
	"sync"

	"rafflescout/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunCompleted  EventType = "run_completed"
	EventTypeSourceFailed  EventType = "source_failed"
	EventTypeRecordsPruned EventType = "records_pruned"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RunCompletedEvent is published after every ingestion run, including
// runs with partial failures
type RunCompletedEvent struct {
	Summary models.IngestionSummary
}

func (e RunCompletedEvent) Type() EventType {
	return EventTypeRunCompleted
}

// SourceFailedEvent is published once per failed scraper per run
type SourceFailedEvent struct {
	RunID  string
	Source string
	Reason string
}

func (e SourceFailedEvent) Type() EventType {
	return EventTypeSourceFailed
}

// RecordsPrunedEvent is published when a run deletes stale records
type RecordsPrunedEvent struct {
	RunID  string
	Pruned int64
}

func (e RecordsPrunedEvent) Type() EventType {
	return EventTypeRecordsPruned
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously so a slow notifier never blocks ingestion
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
