package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/reddlead/gti-pipeline/internal/config"
	"github.com/reddlead/gti-pipeline/internal/handler"
	"github.com/reddlead/gti-pipeline/internal/infra/postgresql"
	"github.com/reddlead/gti-pipeline/internal/infra/postgresql/migrations"
	infraredis "github.com/reddlead/gti-pipeline/internal/infra/redis"
	"github.com/reddlead/gti-pipeline/internal/observability"
	"github.com/reddlead/gti-pipeline/internal/provider"
	"github.com/reddlead/gti-pipeline/internal/queue"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"github.com/reddlead/gti-pipeline/internal/service"
	"github.com/reddlead/gti-pipeline/internal/tracker"
	"github.com/reddlead/gti-pipeline/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	callTracker, err := tracker.NewRedisCallTracker(rdb, cfg.GTITTLDays)
	if err != nil {
		logger.Fatal("call tracker initialization failed", zap.Error(err))
	}

	leadRepo := repository.NewGormLeadRepo(db)
	logRepo := repository.NewGormPostbackLogRepo(db)
	eventRepo := repository.NewGormGTIEventRepo(db)
	integrationLogRepo := repository.NewGormIntegrationLogRepo(db)

	webhookLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.WebhookRatePerSec, time.Second)
	if err != nil {
		logger.Fatal("webhook rate limiter initialization failed", zap.Error(err))
	}
	exportLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.ExportRatePerMin, time.Minute)
	if err != nil {
		logger.Fatal("export rate limiter initialization failed", zap.Error(err))
	}

	jobQueue := queue.NewMemoryQueue()
	defer jobQueue.Close()

	gtiClient := provider.NewGTIClient(cfg.GTIPostbackURL, cfg.GTIAuthHeader)
	if !gtiClient.Configured() {
		logger.Warn("postback endpoint is not configured, deliveries will fail until it is set")
	}

	metrics := observability.NewMetrics()

	intakeSvc, err := service.NewIntakeService(callTracker, leadRepo, logger)
	if err != nil {
		logger.Fatal("intake service initialization failed", zap.Error(err))
	}
	intakeSvc.SetMetrics(metrics)

	postbackSvc, err := service.NewPostbackService(jobQueue, callTracker, leadRepo, logRepo, logger)
	if err != nil {
		logger.Fatal("postback service initialization failed", zap.Error(err))
	}
	postbackSvc.SetMetrics(metrics)

	worker, err := service.NewDispatchWorker(
		jobQueue, gtiClient, callTracker, leadRepo, logRepo, eventRepo, cfg.GTIExportOrg, logger,
	)
	if err != nil {
		logger.Fatal("dispatch worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	exportSvc, err := service.NewExportService(
		eventRepo, cfg.GTIExportOrg, cfg.GTIExportLimit, cfg.GTIExportMaxLimit, logger,
	)
	if err != nil {
		logger.Fatal("export service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "gti-pipeline",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)

	// Both external surfaces are path-literal contracts: the dialer posts
	// to /incoming, the partner polls /export and acks /receive. Guards are
	// attached per route so the export gate never sees dialer traffic.
	if err := handler.RegisterWebhookRoutes(app, intakeSvc,
		transport.RateLimit(webhookLimiter, func(c *fiber.Ctx) string { return "incoming" }, logger),
	); err != nil {
		logger.Fatal("webhook route registration failed", zap.Error(err))
	}

	gate := transport.NewAccessGate(cfg.GTIExportKey, cfg.AllowedIPs(), integrationLogRepo, logger)
	if err := handler.RegisterExportRoutes(app, exportSvc,
		gate.Middleware(),
		transport.RateLimit(exportLimiter, func(c *fiber.Ctx) string { return "export:" + c.IP() }, logger),
	); err != nil {
		logger.Fatal("export route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Start(gctx)
	})

	g.Go(func() error {
		logger.Info("gti-pipeline api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server terminated", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
