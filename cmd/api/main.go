package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/lfpl47/hiring-data-service/internal/api/http"
	"github.com/lfpl47/hiring-data-service/internal/api/http/handlers"
	"github.com/lfpl47/hiring-data-service/internal/auth"
	"github.com/lfpl47/hiring-data-service/internal/config"
	"github.com/lfpl47/hiring-data-service/internal/events"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
	"github.com/lfpl47/hiring-data-service/internal/metrics"
	"github.com/lfpl47/hiring-data-service/internal/observability"
	"github.com/lfpl47/hiring-data-service/internal/persistence"
	"github.com/lfpl47/hiring-data-service/internal/repository"
	"github.com/lfpl47/hiring-data-service/internal/service"
	"github.com/lfpl47/hiring-data-service/internal/worker"
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

	pool := pg.PoolHandle()
	departmentRepo := repository.NewDepartmentRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)

	var runLock ingest.RunLock
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unavailable; falling back to in-process run lock", zap.Error(err))
		runLock = persistence.NewLocalRunLock()
	} else {
		runLock = persistence.NewRedisRunLock(redis, cfg.Ingest.LockTTL())
	}

	requestMetrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	auditWorker := worker.NewAuditWorker(redis, requestMetrics, logger)
	auditWorker.Register(dispatcher)

	ingestor := ingest.NewIngestor(ingest.Dependencies{
		DepartmentRepo: departmentRepo,
		JobRepo:        jobRepo,
		EmployeeRepo:   employeeRepo,
		Lock:           runLock,
		MaxBatch:       cfg.Ingest.MaxBatchSize,
		Logger:         logger,
	})
	reportWriter := ingest.NewReportWriter(cfg.Ingest.ReportDir, logger)
	ingestService := service.NewIngestService(service.IngestDependencies{
		Ingestor:   ingestor,
		Reports:    reportWriter,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	aggregator := metrics.NewAggregator(metrics.Dependencies{
		EmployeeRepo:   employeeRepo,
		DepartmentRepo: departmentRepo,
		JobRepo:        jobRepo,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, requestMetrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ingestHandler := handlers.NewIngestHandler(ingestService)
	metricsHandler := handlers.NewMetricsHandler(aggregator)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Ingest:         ingestHandler,
		Metrics:        metricsHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
