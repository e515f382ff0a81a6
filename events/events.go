package events

import (
	"context"
	"sync"

	"chainjack/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of in-process events
type EventType string

const (
	EventTypeGameStateChanged  EventType = "game_state_changed"
	EventTypeBalanceChanged    EventType = "balance_changed"
	EventTypeUserStatusChanged EventType = "user_status_changed"
	EventTypeDebtSettled       EventType = "debt_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GameStateChangedEvent carries the latest game snapshot, either from the
// local single-player game or mirrored from a play chain's stream.
type GameStateChangedEvent struct {
	Chain models.ChainID
	Game  models.BlackjackGame
}

func (e GameStateChangedEvent) Type() EventType {
	return EventTypeGameStateChanged
}

// BalanceChangedEvent reports a ledger account balance change.
type BalanceChangedEvent struct {
	Owner      string
	OldBalance int64
	NewBalance int64
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// UserStatusChangedEvent reports a user chain protocol status transition.
type UserStatusChangedEvent struct {
	OldStatus models.UserStatus
	NewStatus models.UserStatus
}

func (e UserStatusChangedEvent) Type() EventType {
	return EventTypeUserStatusChanged
}

// DebtSettledEvent reports that a previously pending debt was confirmed paid.
type DebtSettledEvent struct {
	DebtID uint64
	Amount int64
}

func (e DebtSettledEvent) Type() EventType {
	return EventTypeDebtSettled
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

	// Call handlers asynchronously to avoid blocking the chain executor
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

// TransactionalBus stashes events raised inside a unit of work and flushes
// them to the underlying bus only after the state commit, so observers never
// see events from rolled-back handlers.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush.
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
