// Package notify tells the administrative chat about bookings and cancellations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"barbershop/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrAdminChatNotSet  = errors.New("admin chat id is not configured")
	ErrInvalidAdminChat = errors.New("invalid admin chat id")
)

// TelegramSender is the part of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends fixed-format booking notices to one admin chat.
type Notifier struct {
	tg      TelegramSender
	chatID  string
	limiter *rate.Limiter
}

// New builds a notifier for adminChat, which is either a numeric chat id or an
// @channel username. The value is only checked when a notice is sent.
// Sends are paced at perSecond with the given burst.
func New(tg TelegramSender, adminChat string, perSecond float64, burst int) *Notifier {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Notifier{
		tg:      tg,
		chatID:  strings.TrimSpace(adminChat),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Subscribe attaches the notifier to booking events on bus.
func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, n.Handle)
	bus.Subscribe(events.BookingCancelled, n.Handle)
}

// Handle sends the notice for a booking event.
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	var text string
	switch e.Type {
	case events.BookingCreated:
		text = FormatNewBooking(e.Booking)
	case events.BookingCancelled:
		text = FormatCancellation(e.Booking)
	default:
		return nil
	}

	msg, err := n.message(text)
	if err != nil {
		return err
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify wait: %w", err)
	}
	if _, err := n.tg.Send(msg); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("event", e.Type).Int64("chat_id", e.Booking.ChatID).Msg("admin notified")
	return nil
}

func (n *Notifier) message(text string) (tgbotapi.MessageConfig, error) {
	switch {
	case n.chatID == "":
		return tgbotapi.MessageConfig{}, ErrAdminChatNotSet
	case strings.HasPrefix(n.chatID, "@"):
		return tgbotapi.NewMessageToChannel(n.chatID, text), nil
	}
	id, err := strconv.ParseInt(n.chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("%w: %q", ErrInvalidAdminChat, n.chatID)
	}
	return tgbotapi.NewMessage(id, text), nil
}

func FormatNewBooking(b events.Booking) string {
	return fmt.Sprintf("New booking:\n\nClient: %s\nTime: %s", b.FullName, b.Time)
}

func FormatCancellation(b events.Booking) string {
	return fmt.Sprintf("Booking cancelled:\n\nClient: %s\nTime: %s", b.FullName, b.Time)
}
