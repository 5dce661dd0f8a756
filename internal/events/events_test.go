package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsSubscribersInOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe(BookingCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.Booking.FullName)
		assert.False(t, e.CreatedAt.IsZero())
		return nil
	})
	bus.Subscribe(BookingCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.Booking.Time)
		return nil
	})
	bus.Subscribe(BookingCancelled, func(_ context.Context, _ Event) error {
		calls = append(calls, "cancelled")
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Type:    BookingCreated,
		Booking: Booking{ChatID: 1, FullName: "Maria Silva", Time: "14:30"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:Maria Silva", "second:14:30"}, calls)
}

func TestPublishJoinsErrors(t *testing.T) {
	bus := NewBus()
	errA := errors.New("a")
	errB := errors.New("b")
	ran := 0

	bus.Subscribe(BookingCancelled, func(context.Context, Event) error { ran++; return errA })
	bus.Subscribe(BookingCancelled, func(context.Context, Event) error { ran++; return nil })
	bus.Subscribe(BookingCancelled, func(context.Context, Event) error { ran++; return errB })

	err := bus.Publish(context.Background(), Event{Type: BookingCancelled})
	assert.Equal(t, 3, ran)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewBus().Publish(context.Background(), Event{Type: "unknown"}))
}
