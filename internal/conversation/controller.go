package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barbershop/internal/events"
	"barbershop/internal/metrics"
	"barbershop/internal/model"
	"barbershop/internal/store"

	"github.com/rs/zerolog"
)

// Sender delivers a plain-text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Publisher fans out booking events (admin notification, metrics).
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Options struct {
	ShopName string
	Hours    BusinessHours
}

// Controller runs the booking dialog. Calls for the same chat are serialized;
// calls for different chats may run concurrently.
type Controller struct {
	store  store.Store
	sender Sender
	events Publisher
	fsm    *FSM
	locks  *keyedMutex
	opts   Options
}

func NewController(st store.Store, sender Sender, pub Publisher, opts Options) *Controller {
	if opts.Hours == (BusinessHours{}) {
		opts.Hours = DefaultBusinessHours
	}
	return &Controller{
		store:  st,
		sender: sender,
		events: pub,
		fsm:    NewFSM(),
		locks:  newKeyedMutex(),
		opts:   opts,
	}
}

// HandleMessage advances the dialog of chatID with an inbound text.
// Rejected input is answered with a re-prompt and is not an error; errors come only
// from the store, the sender or event subscribers.
func (c *Controller) HandleMessage(ctx context.Context, chatID int64, text string) error {
	unlock := c.locks.Lock(chatID)
	defer unlock()

	conv, err := c.store.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load conversation %d: %w", chatID, err)
	}

	if conv == nil {
		conv = model.NewConversation(chatID)
		if err := c.save(ctx, stateNone, conv); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Debug().Int64("chat_id", chatID).Msg("conversation started")
		return c.sender.SendText(ctx, chatID, welcomeText(c.opts.ShopName))
	}

	switch conv.State {
	case model.StateAwaitingName:
		return c.handleName(ctx, conv, text)
	case model.StateAwaitingTime:
		return c.handleTime(ctx, conv, text)
	case model.StateHasAppointment:
		return c.sender.SendText(ctx, chatID, bookingStatusText(conv.FullName, conv.Time))
	default:
		return fmt.Errorf("conversation %d in unknown state %q", chatID, conv.State)
	}
}

func (c *Controller) handleName(ctx context.Context, conv *model.Conversation, text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		metrics.IncInputRejected(metrics.ReasonEmptyName)
		return c.sender.SendText(ctx, conv.ChatID, msgNamePrompt)
	}

	next := *conv
	next.FullName = name
	next.State = model.StateAwaitingTime
	if err := c.save(ctx, conv.State, &next); err != nil {
		return err
	}
	return c.sender.SendText(ctx, conv.ChatID, hoursPromptText(c.opts.Hours))
}

func (c *Controller) handleTime(ctx context.Context, conv *model.Conversation, text string) error {
	t, err := c.opts.Hours.ValidateTime(text)
	switch {
	case errors.Is(err, ErrInvalidTimeFormat):
		metrics.IncInputRejected(metrics.ReasonTimeFormat)
		return c.sender.SendText(ctx, conv.ChatID, msgTimeFormat)
	case errors.Is(err, ErrOutsideBusinessHours):
		metrics.IncInputRejected(metrics.ReasonOutsideHours)
		return c.sender.SendText(ctx, conv.ChatID, outsideHoursText(c.opts.Hours))
	case err != nil:
		return err
	}

	booked := conv.Booked(t)
	if err := c.save(ctx, conv.State, booked); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int64("chat_id", conv.ChatID).Str("time", t).Msg("appointment booked")

	if err := c.sender.SendText(ctx, conv.ChatID, confirmedText(booked.FullName, t, c.opts.ShopName)); err != nil {
		return err
	}
	return c.publish(ctx, events.BookingCreated, booked)
}

// HandleCancel cancels the booking of chatID, whatever step the dialog is at.
// The record is removed once the customer has been told, before admins are notified.
func (c *Controller) HandleCancel(ctx context.Context, chatID int64) error {
	unlock := c.locks.Lock(chatID)
	defer unlock()

	conv, err := c.store.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load conversation %d: %w", chatID, err)
	}
	if !conv.CanCancel() {
		metrics.IncInputRejected(metrics.ReasonNoBooking)
		return c.sender.SendText(ctx, chatID, msgNothingToCxl)
	}

	if err := c.fsm.Check(conv.State, stateNone); err != nil {
		return err
	}
	if err := c.sender.SendText(ctx, chatID, cancelledText(conv.FullName, conv.Time)); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete conversation %d: %w", chatID, err)
	}
	zerolog.Ctx(ctx).Info().Int64("chat_id", chatID).Str("time", conv.Time).Msg("appointment cancelled")
	return c.publish(ctx, events.BookingCancelled, conv)
}

func (c *Controller) save(ctx context.Context, from model.State, conv *model.Conversation) error {
	if err := c.fsm.Check(from, conv.State); err != nil {
		return err
	}
	if err := c.store.Save(ctx, conv); err != nil {
		return fmt.Errorf("save conversation %d: %w", conv.ChatID, err)
	}
	return nil
}

func (c *Controller) publish(ctx context.Context, eventType string, conv *model.Conversation) error {
	if c.events == nil {
		return nil
	}
	return c.events.Publish(ctx, events.Event{
		Type: eventType,
		Booking: events.Booking{
			ChatID:   conv.ChatID,
			FullName: conv.FullName,
			Time:     conv.Time,
		},
	})
}
