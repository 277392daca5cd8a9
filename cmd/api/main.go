package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/devbyzero/flowlens-gateway/internal/api/http"
	"github.com/devbyzero/flowlens-gateway/internal/api/http/handlers"
	"github.com/devbyzero/flowlens-gateway/internal/auth"
	"github.com/devbyzero/flowlens-gateway/internal/config"
	"github.com/devbyzero/flowlens-gateway/internal/events"
	"github.com/devbyzero/flowlens-gateway/internal/githubapi"
	"github.com/devbyzero/flowlens-gateway/internal/observability"
	"github.com/devbyzero/flowlens-gateway/internal/persistence"
	"github.com/devbyzero/flowlens-gateway/internal/repository"
	"github.com/devbyzero/flowlens-gateway/internal/service"
	"github.com/devbyzero/flowlens-gateway/internal/webhook"
	"github.com/devbyzero/flowlens-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting flowlens gateway",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	repoRepo := repository.NewRepoRepository(postgres.PoolHandle())
	crRepo := repository.NewChangeRequestRepository(postgres.PoolHandle())
	pipelineRepo := repository.NewPipelineRunRepository(postgres.PoolHandle())

	var dedup service.DeliveryDeduper
	if cfg.Notify.DedupEnabled {
		dedup = service.NewRedisDeduper(redis, cfg.Notify.DedupTTL())
	}

	ingest := service.NewIngestService(service.IngestDependencies{
		RepoRepo:          repoRepo,
		ChangeRequestRepo: crRepo,
		PipelineRepo:      pipelineRepo,
		Diffs:             githubapi.NewClient(cfg.GitHub, logger),
		Dedup:             dedup,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})

	notifications := service.NewNotificationService(redis, cfg.Notify.Channel, logger)
	worker.StartNotificationWorker(dispatcher, notifications, logger)

	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.AllowUnsigned)
	if verifier.Unsigned() {
		logger.Warn("signature verification disabled; development only")
	}

	tokenManager := auth.NewTokenManager(cfg.Debug)

	app := httpapi.NewServer(httpapi.RouterDependencies{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Webhook:      handlers.NewWebhookHandler(verifier, ingest, metrics, logger),
		Health:       handlers.NewHealthHandler(cfg.App.Version, postgres, redis),
		Debug:        handlers.NewDebugHandler(cfg.Debug.APISecret, tokenManager, crRepo, pipelineRepo, logger),
		TokenManager: tokenManager,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.App.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}
