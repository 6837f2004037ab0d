package events

import (
	"context"
	"sync"

	"lineswipe/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeSwipeRecorded        EventType = "swipe_recorded"
	EventTypeSwipeRemoved         EventType = "swipe_removed"
	EventTypeAggregateUpdated     EventType = "aggregate_updated"
	EventTypeTierChanged          EventType = "tier_changed"
	EventTypeSnapshotRunCompleted EventType = "snapshot_run_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SwipeRecordedEvent represents a swipe that was admitted to the ledger
type SwipeRecordedEvent struct {
	UserID       int64
	LineID       int64
	Direction    models.SwipeDirection
	OldDirection models.SwipeDirection // empty for a first swipe
	FirstSwipe   bool
}

func (e SwipeRecordedEvent) Type() EventType {
	return EventTypeSwipeRecorded
}

// SwipeRemovedEvent represents a swipe taken back by its user
type SwipeRemovedEvent struct {
	UserID    int64
	LineID    int64
	Direction models.SwipeDirection
}

func (e SwipeRemovedEvent) Type() EventType {
	return EventTypeSwipeRemoved
}

// AggregateUpdatedEvent carries a line's tallies after an adjustment
type AggregateUpdatedEvent struct {
	LineID         int64
	ConfidentCount int
	DoubtCount     int
}

func (e AggregateUpdatedEvent) Type() EventType {
	return EventTypeAggregateUpdated
}

// TierChangedEvent represents a subscription tier change
type TierChangedEvent struct {
	UserID  int64
	OldTier models.QuotaTier
	NewTier models.QuotaTier
}

func (e TierChangedEvent) Type() EventType {
	return EventTypeTierChanged
}

// SnapshotRunCompletedEvent summarizes a finished daily snapshot run
type SnapshotRunCompletedEvent struct {
	RunDate       string
	LinesCaptured int
	LinesSkipped  int
	LinesFailed   int
}

func (e SnapshotRunCompletedEvent) Type() EventType {
	return EventTypeSnapshotRunCompleted
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

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
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

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Use background context for event emission to avoid issues with transaction context expiration
	// Events should be processed independently of the transaction lifecycle
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
