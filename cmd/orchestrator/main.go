package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spinozarabel/headstart-admission/internal/api/http"
	"github.com/spinozarabel/headstart-admission/internal/api/http/handlers"
	"github.com/spinozarabel/headstart-admission/internal/auth"
	"github.com/spinozarabel/headstart-admission/internal/commerce"
	"github.com/spinozarabel/headstart-admission/internal/config"
	"github.com/spinozarabel/headstart-admission/internal/events"
	"github.com/spinozarabel/headstart-admission/internal/lms"
	"github.com/spinozarabel/headstart-admission/internal/observability"
	"github.com/spinozarabel/headstart-admission/internal/persistence"
	"github.com/spinozarabel/headstart-admission/internal/ticketstore"
	"github.com/spinozarabel/headstart-admission/internal/webhook"
	"github.com/spinozarabel/headstart-admission/internal/worker"
	"github.com/spinozarabel/headstart-admission/internal/workflow"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher(logger)
	store := ticketstore.NewPostgresStore(pg.PoolHandle(), dispatcher)

	engine := workflow.NewEngine(
		store,
		commerce.NewClient(cfg.Commerce),
		lms.NewClient(cfg.LMS),
		cfg.Categories,
		cfg.InstitutionDomain,
		cfg.Commerce.ProductID,
		logger,
		metrics,
	)
	queue := worker.NewQueue(logger)
	engine.SetRunner(queue)
	engine.BindEvents(dispatcher)

	sweeper := worker.NewSweeper(engine, redis, cfg.Sweep.Interval, cfg.Sweep.LeaseTTLSeconds, logger, metrics)
	go sweeper.Run(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.TrustedIP, cfg.Webhook.TrustedSource)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:        handlers.NewWebhookHandler(verifier, engine, logger, metrics),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth.OperatorPasswordHash),
		Admin:          handlers.NewAdminHandler(engine),
		AuthMiddleware: authMiddleware,
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := queue.Shutdown(drainCtx); err != nil {
		logger.Warn("ticket queue did not drain cleanly", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
