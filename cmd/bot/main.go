package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barbershop/internal/bot"
	"barbershop/internal/config"
	"barbershop/internal/conversation"
	"barbershop/internal/events"
	"barbershop/internal/metrics"
	"barbershop/internal/notify"
	"barbershop/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err = cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if level, lErr := zerolog.ParseLevel(cfg.Log.Level); lErr == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conversations store.Store = store.NewMemoryStore()
	storeKind := "memory"
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		conversations = store.NewFailoverStore(store.NewRedisStore(rdb, cfg.RedisTTL()), conversations, &logger)
		storeKind = "redis"
	}

	api, err := bot.NewAPI(bot.APIOptions{
		Token:     cfg.Telegram.BotToken,
		Endpoint:  cfg.Telegram.APIEndpoint,
		Debug:     cfg.Telegram.Debug,
		ForceIPv4: cfg.Telegram.ForceIPv4,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create telegram api error")
	}

	bus := events.NewBus()
	notify.New(api, cfg.Admin.ChatID, cfg.Notify.RatePerSecond, cfg.Notify.Burst).Subscribe(bus)
	bus.Subscribe(events.BookingCreated, func(context.Context, events.Event) error {
		metrics.IncBookingCreated()
		return nil
	})
	bus.Subscribe(events.BookingCancelled, func(context.Context, events.Event) error {
		metrics.IncBookingCancelled()
		return nil
	})

	ctrl := conversation.NewController(conversations, bot.NewTextSender(api), bus, conversation.Options{
		ShopName: cfg.Shop.Name,
		Hours:    conversation.BusinessHours{Open: cfg.Shop.OpenHour, Close: cfg.Shop.CloseHour},
	})

	b, err := bot.New(api, ctrl, cfg.Telegram.Workers, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, conversations, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Str("shop", cfg.Shop.Name).Str("store", storeKind).Msg("Barbershop bot is running")
	b.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, conversations store.Store, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := conversations.Ping(ctxPing); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, port, mux, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, port, mux, "metrics", logger)
}

func serve(ctx context.Context, port int, handler http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
