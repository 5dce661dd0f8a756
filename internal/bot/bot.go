package bot

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"barbershop/internal/conversation"
	"barbershop/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const queueSize = 16

// APIOptions configures the Telegram Bot API client.
type APIOptions struct {
	Token     string
	Endpoint  string // defaults to tgbotapi.APIEndpoint
	Debug     bool
	ForceIPv4 bool
}

// NewAPI connects to the Bot API over a keep-alive HTTP client, optionally dialing IPv4 only.
func NewAPI(opts APIOptions) (*tgbotapi.BotAPI, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if opts.ForceIPv4 {
			network = "tcp4"
		}
		return dialer.DialContext(ctx, network, addr)
	}

	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, &http.Client{Transport: transport})
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = opts.Debug
	return api, nil
}

// Bot polls Telegram for updates and routes them to the conversation handler.
type Bot struct {
	tg      telegramClient
	handler Handler
	workers int
	logger  *zerolog.Logger
}

func New(api *tgbotapi.BotAPI, handler Handler, workers int, logger *zerolog.Logger) (*Bot, error) {
	return newBot(&realTelegramClient{api: api}, handler, workers, logger)
}

func newBot(tg telegramClient, handler Handler, workers int, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if workers <= 0 {
		workers = 1
	}
	return &Bot{tg: tg, handler: handler, workers: workers, logger: logger}, nil
}

// Start polls updates until ctx is done. Updates are sharded by chat across workers,
// so one chat's messages are handled one at a time and in arrival order.
// Updates already queued when ctx is done are still handled to completion.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Debug().Str("username", b.tg.SelfUser().UserName).Int("workers", b.workers).Msg("bot authorized")

	// A state change must not be committed without its replies going out.
	workCtx := context.WithoutCancel(ctx)
	queues := make([]chan tgbotapi.Update, b.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, queueSize)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for update := range q {
				b.dispatch(workCtx, update)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			chatID, ok := chatOf(&update)
			if !ok {
				continue
			}
			select {
			case queues[shard(chatID, b.workers)] <- update:
			case <-ctx.Done():
				b.tg.StopReceivingUpdates()
				return
			}
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Int("update_id", update.UpdateID).Logger()
	updateCtx := l.WithContext(ctx)
	if err := b.handleUpdate(updateCtx, &update); err != nil {
		metrics.IncHandlerError()
		l.Error().Err(err).Msg("failed to handle update")
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	l := zerolog.Ctx(ctx)

	if isCancel(msg) {
		l.Debug().Int64("chat_id", msg.Chat.ID).Msg("Handling cancel command")
		return b.handler.HandleCancel(ctx, msg.Chat.ID)
	}

	l.Debug().Int64("chat_id", msg.Chat.ID).Str("text", msg.Text).Msg("Handling message")
	return b.handler.HandleMessage(ctx, msg.Chat.ID, msg.Text)
}

// isCancel matches the cancel command, including when it is not the leading word.
func isCancel(msg *tgbotapi.Message) bool {
	if msg.IsCommand() && msg.Command() == conversation.CancelCommand {
		return true
	}
	return strings.Contains(msg.Text, "/"+conversation.CancelCommand)
}

func chatOf(update *tgbotapi.Update) (int64, bool) {
	if update.Message == nil || update.Message.Chat == nil {
		return 0, false
	}
	return update.Message.Chat.ID, true
}

func shard(chatID int64, n int) int {
	return int(uint64(chatID) % uint64(n))
}
