package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/impulsa-ai/brenda/internal/advisor"
	"github.com/impulsa-ai/brenda/internal/analyzer"
	"github.com/impulsa-ai/brenda/internal/catalog"
	"github.com/impulsa-ai/brenda/internal/composer"
	"github.com/impulsa-ai/brenda/internal/config"
	"github.com/impulsa-ai/brenda/internal/engine"
	"github.com/impulsa-ai/brenda/internal/httpapi"
	"github.com/impulsa-ai/brenda/internal/intake"
	"github.com/impulsa-ai/brenda/internal/llm"
	"github.com/impulsa-ai/brenda/internal/memory"
	"github.com/impulsa-ai/brenda/internal/messenger"
	"github.com/impulsa-ai/brenda/internal/notify"
	"github.com/impulsa-ai/brenda/internal/observability/metrics"
	"github.com/impulsa-ai/brenda/internal/policy"
	"github.com/impulsa-ai/brenda/internal/tools"
	"github.com/impulsa-ai/brenda/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting brenda bot server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create catalog pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	gateway := catalog.NewPostgresGateway(pool, logger.Named("catalog"),
		catalog.WithRetry(cfg.RetryMaxAttempts, cfg.RetryBaseDelay))

	healthChecks := map[string]httpapi.Pinger{
		"catalog": httpapi.PingerFunc(pool.Ping),
	}

	store, redisClient, err := buildMemoryStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize memory store", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = httpapi.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	llmClient, closeLLM, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	analyzerMode := "rules"
	if cfg.AnalyzerLLMMode {
		analyzerMode = "llm"
	}

	emailSender := buildEmailSender(cfg, logger)

	sender := buildSender(cfg, logger)

	convMetrics := metrics.NewConversationMetrics(nil)

	eng := engine.New(engine.Options{
		Store:     store,
		Locks:     memory.NewUserLocks(),
		Intake:    intake.NewMachine(gateway, cfg.CampaignCourses, logger.Named("intake")),
		Analyzer:  analyzer.New(llmClient, analyzerMode, logger.Named("analyzer")),
		Policy:    policy.New(logger.Named("policy")),
		Registry:  tools.NewRegistry(gateway, logger.Named("tools")),
		LLM:       llmClient,
		Validator: llm.NewValidator(logger.Named("validator")),
		Composer:  composer.New(logger.Named("composer")),
		Advisor:   advisor.New(gateway, emailSender, cfg.AdvisorEmail, logger.Named("advisor")),
		Catalog:   gateway,
		Sender:    sender,
		Metrics:   convMetrics,
		Logger:    logger.Named("engine"),

		TurnBudget:     cfg.TurnBudget,
		ToolTimeout:    cfg.ToolCallTimeout,
		LLMModel:       cfg.OpenAIModel,
		LLMMaxTokens:   int32(cfg.LLMMaxTokens),
		LLMTemperature: float32(cfg.LLMTemperature),
	})

	router := httpapi.NewRouter(&httpapi.Config{
		Logger:         logger,
		WebhookHandler: httpapi.NewWebhookHandler(eng, cfg.TelegramWebhookToken, logger),
		HealthHandler:  httpapi.NewHealthHandler(healthChecks, logger),
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TurnBudget + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildMemoryStore selects the profile store backend. The redis client is
// returned so main can close it and register its health check.
func buildMemoryStore(cfg *config.Config, logger *logging.Logger) (memory.Store, *redis.Client, error) {
	if cfg.MemoryBackend == "redis" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		logger.Info("using redis memory store", "addr", cfg.RedisAddr)
		return memory.NewRedisStore(client, logger.Named("memory")), client, nil
	}

	store, err := memory.NewFileStore(cfg.MemoryDataDir, logger.Named("memory"))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using file memory store", "dir", cfg.MemoryDataDir)
	return store, nil, nil
}

// buildLLMClient composes OpenAI as primary with Gemini as fallback. Either
// provider alone also works; at least one API key is required.
func buildLLMClient(ctx context.Context, cfg *config.Config, logger *logging.Logger) (llm.Client, func(), error) {
	noop := func() {}

	var primary llm.Client
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		primary = client
	}

	var gemini *llm.GeminiClient
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		gemini = client
	}

	closeGemini := noop
	if gemini != nil {
		closeGemini = func() { _ = gemini.Close() }
	}

	switch {
	case primary != nil && gemini != nil:
		logger.Info("llm: openai primary with gemini fallback")
		return llm.NewFallbackClient(primary, gemini, logger), closeGemini, nil
	case primary != nil:
		logger.Info("llm: openai only")
		return primary, noop, nil
	case gemini != nil:
		logger.Info("llm: gemini only")
		return gemini, closeGemini, nil
	default:
		return nil, noop, errors.New("OPENAI_API_KEY or GEMINI_API_KEY is required")
	}
}

// buildEmailSender selects the advisor notification channel. Every variant is
// wrapped in the retry decorator.
func buildEmailSender(cfg *config.Config, logger *logging.Logger) notify.EmailSender {
	var inner notify.EmailSender

	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFrom,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			inner = s
		}
	case "smtp":
		if s := notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.AdvisorFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			inner = s
		}
	}

	if inner == nil {
		if cfg.EmailProvider != "stub" {
			logger.Warn("email provider not configured, using stub", "provider", cfg.EmailProvider)
		}
		inner = notify.NewStubEmailSender(logger)
	}

	return notify.NewRetrySender(inner, logger)
}

// buildSender returns the Telegram client, or the stub when no bot token is
// configured (local development).
func buildSender(cfg *config.Config, logger *logging.Logger) messenger.Sender {
	if cfg.TelegramBotToken == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, outbound replies are logged only")
		return messenger.NewStubSender(logger)
	}
	client, err := messenger.NewTelegramClient(messenger.TelegramConfig{
		BaseURL:  cfg.TelegramAPIBaseURL,
		BotToken: cfg.TelegramBotToken,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create telegram client", "error", err)
		os.Exit(1)
	}
	return client
}
