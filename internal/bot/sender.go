package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TextSender sends plain-text replies through the Bot API.
type TextSender struct {
	tg TelegramSender
}

func NewTextSender(tg TelegramSender) *TextSender {
	return &TextSender{tg: tg}
}

func (s *TextSender) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}
