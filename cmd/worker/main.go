package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/NDJ-create/backend-stockage-clean/internal/app"
	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/observability"
	"github.com/NDJ-create/backend-stockage-clean/internal/platform/cache"
	"github.com/NDJ-create/backend-stockage-clean/internal/platform/db"
	"github.com/NDJ-create/backend-stockage-clean/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	var store ledger.SnapshotStore
	switch cfg.StoreDriver {
	case app.StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store = ledger.NewPostgresStore(pool)
	case app.StoreMemory:
		store = ledger.NewMemoryStore()
	default:
		fileStore, err := ledger.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Error("open data dir", slog.Any("error", err))
			os.Exit(1)
		}
		store = fileStore
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	manager := ledger.NewManager(store, ledger.NewRedisLocker(redisClient, cfg.LockTTL), logger, observability.NewMetrics())
	scanner := jobs.NewAlertScanner(manager, logger)

	scanTask, err := jobs.NewAlertScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build alert scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:    asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:       logger,
		AlertScanner: scanner,
		Cron: []jobs.CronRegistration{
			{Spec: "@every " + cfg.AlertScanInterval.String(), Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr), slog.String("store", cfg.StoreDriver))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
