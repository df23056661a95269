package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/lfpl47/hiring-data-service/internal/config"
	"github.com/lfpl47/hiring-data-service/internal/events"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
	"github.com/lfpl47/hiring-data-service/internal/metrics"
	"github.com/lfpl47/hiring-data-service/internal/observability"
	"github.com/lfpl47/hiring-data-service/internal/persistence"
	"github.com/lfpl47/hiring-data-service/internal/repository"
	"github.com/lfpl47/hiring-data-service/internal/worker"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// runtime wires the shared collaborators every subcommand needs.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	pg         *persistence.Postgres
	redis      *persistence.Redis
	deptRepo   repository.DepartmentRepository
	jobRepo    repository.JobRepository
	empRepo    repository.EmployeeRepository
	ingestor   *ingest.Ingestor
	reports    *ingest.ReportWriter
	dispatcher events.Dispatcher
	aggregator *metrics.Aggregator
}

func newRuntime(ctx context.Context) (*runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)

	cleanup := func() {
		redis.Close()
		pg.Close()
		_ = logger.Sync()
	}

	pool := pg.PoolHandle()
	deptRepo := repository.NewDepartmentRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	empRepo := repository.NewEmployeeRepository(pool)

	var runLock ingest.RunLock
	if err := redis.Ping(ctx); err != nil {
		runLock = persistence.NewLocalRunLock()
	} else {
		runLock = persistence.NewRedisRunLock(redis, cfg.Ingest.LockTTL())
	}

	requestMetrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.NewAuditWorker(redis, requestMetrics, logger).Register(dispatcher)

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		pg:       pg,
		redis:    redis,
		deptRepo: deptRepo,
		jobRepo:  jobRepo,
		empRepo:  empRepo,
		ingestor: ingest.NewIngestor(ingest.Dependencies{
			DepartmentRepo: deptRepo,
			JobRepo:        jobRepo,
			EmployeeRepo:   empRepo,
			Lock:           runLock,
			MaxBatch:       cfg.Ingest.MaxBatchSize,
			Logger:         logger,
		}),
		reports:    ingest.NewReportWriter(cfg.Ingest.ReportDir, logger),
		dispatcher: dispatcher,
		aggregator: metrics.NewAggregator(metrics.Dependencies{
			EmployeeRepo:   empRepo,
			DepartmentRepo: deptRepo,
			JobRepo:        jobRepo,
		}),
	}
	return rt, cleanup, nil
}
