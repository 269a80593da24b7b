package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-chat/internal/api/http"
	"github.com/spec-kit/helpdesk-chat/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-chat/internal/auth"
	"github.com/spec-kit/helpdesk-chat/internal/config"
	"github.com/spec-kit/helpdesk-chat/internal/events"
	"github.com/spec-kit/helpdesk-chat/internal/llm"
	"github.com/spec-kit/helpdesk-chat/internal/observability"
	"github.com/spec-kit/helpdesk-chat/internal/persistence"
	"github.com/spec-kit/helpdesk-chat/internal/repository"
	"github.com/spec-kit/helpdesk-chat/internal/service"
	"github.com/spec-kit/helpdesk-chat/internal/vision"
	"github.com/spec-kit/helpdesk-chat/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sessions, err := newSessionRepository(cfg, redis)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}
	logger.Info("session store ready",
		zap.String("backend", cfg.Session.Backend),
		zap.Int("max_turns", cfg.Session.MaxTurns))

	provider, err := llm.NewClient(cfg.LLM)
	if err != nil {
		logger.Fatal("failed to init llm client", zap.Error(err))
	}
	oracle := llm.WithRetry(provider, llm.RetryPolicy{
		Timeout:    cfg.LLM.CallTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
		Backoff:    cfg.LLM.RetryBackoff(),
	}, logger)
	logger.Info("llm client ready", zap.String("provider", oracle.Provider()), zap.String("model", cfg.LLM.Model))

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var ticketRepo repository.TicketRepository
	if pg.Enabled() {
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
	}
	ticketService := service.NewTicketService(ticketRepo, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartEventWorkers(notificationService, ticketService)

	chatService := service.NewChatService(service.ChatDependencies{
		Sessions:   sessions,
		Oracle:     oracle,
		Analyzer:   vision.NewAnalyzer(oracle, logger),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	} else {
		logger.Info("AUTH_JWT_SECRET not provided; all chat requests are anonymous")
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 20 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		System:         handlers.NewSystemHandler(cfg.LLM.Provider, metrics),
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, sessions, pg, redis),
		Chat:           handlers.NewChatHandler(chatService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}

func newSessionRepository(cfg *config.Config, redis *persistence.Redis) (repository.SessionRepository, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return repository.NewMemorySessionRepository(cfg.Session.MaxTurns), nil
	case config.SessionBackendRedis:
		return repository.NewRedisSessionRepository(redis.Client, cfg.Session.MaxTurns, cfg.Session.TTL()), nil
	default:
		return repository.NewFileSessionRepository(cfg.Session.Dir, cfg.Session.MaxTurns)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
