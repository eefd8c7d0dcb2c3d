package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeeper/internal/api"
	"innkeeper/internal/audit"
	"innkeeper/internal/config"
	"innkeeper/internal/docstore"
	"innkeeper/internal/events"
	"innkeeper/internal/fetch"
	"innkeeper/internal/google"
	"innkeeper/internal/logging"
	"innkeeper/internal/metrics"
	"innkeeper/internal/notify"
	"innkeeper/internal/report"
	"innkeeper/internal/service"
	syncpkg "innkeeper/internal/sync"
	"innkeeper/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	store, err := initStore(cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	auditLog, err := audit.NewLog(cfg.Audit.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Audit.Path).Msg("init audit log")
		return err
	}
	defer auditLog.Close()

	bus := events.NewBus()
	fetchers := fetch.New(store)
	passTimeout := time.Duration(cfg.Sync.PassTimeoutSeconds) * time.Second

	payments := service.NewPaymentService(store, fetchers, bus, auditLog, cfg.Reconciliation.RejectedDominates, &logger)
	aggregator := service.NewAggregator(store, fetchers, payments, passTimeout, &logger)
	bookings := service.NewBookingService(store, bus, auditLog, cfg.AtomicUpdatesEnabled(), &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportWorker := initReports(ctx, cfg, aggregator, bus, &logger)
	initTelegram(cfg, bus, &logger)

	bridge := syncpkg.NewBridge(store, aggregator, syncpkg.NewBookingState(), passTimeout, &logger)
	go func() {
		if err := bridge.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("sync bridge stopped")
		}
	}()
	defer bridge.Close()

	deps := api.Deps{
		Reader:     aggregator,
		Bookings:   bookings,
		Payments:   payments,
		Rooms:      service.NewRoomService(store, fetchers, auditLog, &logger),
		Categories: service.NewCategoryService(store, auditLog, &logger),
		Users:      service.NewUserService(store, auditLog, &logger),
		Hotels:     service.NewHotelService(store),
		State:      bridge.State(),
		Reports:    reportWorker,
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(cfg.API, deps, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initStore(cfg *config.Config, logger *zerolog.Logger) (docstore.Store, error) {
	if cfg.Docstore.Driver == "memory" {
		logger.Warn().Msg("using the in-memory docstore; data is lost on restart")
		return docstore.NewMemoryStore(), nil
	}

	client := docstore.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.Error().Err(err).Str("addr", cfg.Redis.Address).Msg("redis connection failed")
		return nil, err
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return docstore.NewRedisStore(client), nil
}

func initReports(
	ctx context.Context,
	cfg *config.Config,
	reader *service.Aggregator,
	bus *events.Bus,
	logger *zerolog.Logger,
) *worker.ReportWorker {
	var sheetsClient worker.SheetsClient
	if sheetsService := initGoogleSheets(cfg, logger); sheetsService != nil {
		sheetsClient = sheetsService
	}

	exporter := report.NewExporter(cfg.Exports.Path, logger)
	reportWorker := worker.NewReportWorker(reader, sheetsClient, exporter, worker.RetryPolicy{}, logger)
	reportWorker.BindEvents(bus)
	go reportWorker.Start(ctx)
	return reportWorker
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initTelegram(cfg *config.Config, bus *events.Bus, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled {
		return
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return
	}
	bot.Debug = cfg.Telegram.Debug

	notifier := notify.NewNotifier(bot, cfg.Telegram.AdminChatID, logger)
	notifier.BindEvents(bus)
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
