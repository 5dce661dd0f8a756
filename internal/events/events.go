package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Event types published by the conversation controller.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
)

// Booking is the payload of booking events.
type Booking struct {
	ChatID   int64
	FullName string
	Time     string
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Booking   Booking
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(ctx context.Context, event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every subscriber of the event type in registration order and returns
// their joined errors. A failing handler does not stop the rest.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
