package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/herald/internal/config"
	"github.com/forgo/herald/internal/database"
	"github.com/forgo/herald/internal/handler"
	"github.com/forgo/herald/internal/jobs"
	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/middleware"
	"github.com/forgo/herald/internal/repository"
	"github.com/forgo/herald/internal/scheduler"
	"github.com/forgo/herald/internal/service"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	config.LoadEnvFiles(bootLogger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tick, err := config.ParseTick(cfg.Scheduler.Tick)
	if err != nil {
		slog.Error("invalid scheduler tick", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("endpoint", db.Endpoint()),
		slog.String("database", cfg.Database.Database),
	)

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	publishLogRepo := repository.NewPublishLogRepository(db)

	// Initialize publishers
	publishers := []service.Publisher{
		service.NewLinkedInPublisher(service.LinkedInPublisherConfig{
			PostURL: cfg.LinkedIn.PostURL,
			Logger:  logger,
		}),
	}
	if cfg.Telegram.BotToken != "" {
		telegram, err := service.NewTelegramPublisher(service.TelegramPublisherConfig{
			Token:       cfg.Telegram.BotToken,
			DefaultChat: cfg.Telegram.DefaultChat,
		})
		if err != nil {
			slog.Error("failed to initialize Telegram publisher", slog.String("error", err.Error()))
			os.Exit(1)
		}
		publishers = append(publishers, telegram)
	} else {
		slog.Info("Telegram publishing disabled (TELEGRAM_BOT_TOKEN not set)")
	}

	router := service.NewPublisherRouter(service.PublisherRouterConfig{
		Publishers: publishers,
		RatePerSec: cfg.Publish.RatePerSec,
		Logger:     logger,
		Metrics:    m,
	})

	// Initialize services
	userService := service.NewUserService(userRepo)

	deliveryService := service.NewDeliveryService(service.DeliveryServiceConfig{
		Gateway: router,
		History: publishLogRepo,
		Timeout: cfg.Publish.Timeout,
		Logger:  logger,
		Metrics: m,
	})

	store := scheduler.NewStore()
	m.WatchQueue(store)
	clock := scheduler.SystemClock{}

	marketingService := service.NewMarketingService(service.MarketingServiceConfig{
		Generator: service.NewGeminiGenerator(service.GeminiGeneratorConfig{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Gemini.Timeout,
		}),
		Delivery:  deliveryService,
		Scheduler: store,
		Clock:     clock,
		Logger:    logger,
		Metrics:   m,
	})

	linkedInAuth := service.NewLinkedInAuthService(service.LinkedInAuthServiceConfig{
		ClientID:     cfg.LinkedIn.ClientID,
		ClientSecret: cfg.LinkedIn.ClientSecret,
		RedirectURI:  cfg.LinkedIn.RedirectURI,
		UserService:  userService,
	})
	if !linkedInAuth.IsConfigured() {
		slog.Info("LinkedIn OAuth disabled (LINKEDIN_CLIENT_ID not set)")
	}

	// Start background jobs
	dispatcher := jobs.NewPostDispatcher(jobs.PostDispatcherConfig{
		Store:    store,
		Delivery: deliveryService,
		Schedule: tick,
		Clock:    clock,
		Workers:  cfg.Scheduler.Workers,
		Logger:   logger,
		Metrics:  m,
	})
	dispatcher.Start()

	// Initialize handlers
	marketingHandler := handler.NewMarketingHandler(handler.MarketingHandlerConfig{
		Marketing: marketingService,
		Members:   linkedInAuth,
		Logger:    logger,
	})
	linkedInHandler := handler.NewLinkedInHandler(linkedInAuth)
	scheduleHandler := handler.NewScheduleHandler(marketingService, deliveryService)

	operator := middleware.NewOperatorKey(cfg.Operator.KeyHash)
	if !operator.Enabled() {
		slog.Info("schedule management disabled (OPERATOR_KEY_HASH not set)")
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health(db))
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("POST /api/marketing/generate", marketingHandler.Generate)
	mux.HandleFunc("GET /api/marketing/linkedin/auth", linkedInHandler.Authorize)
	mux.HandleFunc("GET /api/marketing/linkedin/callback", linkedInHandler.Callback)

	// Operator endpoints
	mux.Handle("GET /api/marketing/schedule", operator.Require(http.HandlerFunc(scheduleHandler.List)))
	mux.Handle("DELETE /api/marketing/schedule/{postId}", operator.Require(http.HandlerFunc(scheduleHandler.Cancel)))
	mux.Handle("GET /api/marketing/history", operator.Require(http.HandlerFunc(scheduleHandler.History)))
	mux.Handle("GET /api/marketing/history/{postId}", operator.Require(http.HandlerFunc(scheduleHandler.PostHistory)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("tick", cfg.Scheduler.Tick),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	dispatcher.Stop()
	if n := store.Len(); n > 0 {
		slog.Warn("dropping pending scheduled posts", slog.Int("count", n))
	}

	slog.Info("server exited")
}
