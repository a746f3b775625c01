package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/NDJ-create/backend-stockage-clean/internal/app"
	"github.com/NDJ-create/backend-stockage-clean/internal/history"
	"github.com/NDJ-create/backend-stockage-clean/internal/ledger"
	"github.com/NDJ-create/backend-stockage-clean/internal/movements"
	"github.com/NDJ-create/backend-stockage-clean/internal/observability"
	"github.com/NDJ-create/backend-stockage-clean/internal/orders"
	"github.com/NDJ-create/backend-stockage-clean/internal/platform/cache"
	"github.com/NDJ-create/backend-stockage-clean/internal/platform/db"
	"github.com/NDJ-create/backend-stockage-clean/internal/recipes"
	"github.com/NDJ-create/backend-stockage-clean/internal/reports"
	"github.com/NDJ-create/backend-stockage-clean/internal/sales"
	"github.com/NDJ-create/backend-stockage-clean/internal/stock"
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
	metrics := observability.NewMetrics()

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

	var locks ledger.Locker = ledger.NewLocalLocker(cfg.LockTimeout)
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, falling back to local locks", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			locks = ledger.NewRedisLocker(redisClient, cfg.LockTTL)
		}
	}

	manager := ledger.NewManager(store, locks, logger, metrics)

	stockService := stock.NewService(manager, logger)
	ordersService := orders.NewService(manager, logger)
	recipesService := recipes.NewService(manager, logger)
	salesService := sales.NewService(manager, logger)
	reportsService := reports.NewService(manager)
	historyService := history.NewService(manager)
	movementsService := movements.NewService(manager)

	routerParams := app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		StockHandler:     stock.NewHandler(logger, stockService),
		OrdersHandler:    orders.NewHandler(logger, ordersService),
		RecipesHandler:   recipes.NewHandler(logger, recipesService),
		SalesHandler:     sales.NewHandler(logger, salesService),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		HistoryHandler:   history.NewHandler(logger, historyService),
		MovementsHandler: movements.NewHandler(logger, movementsService),
		Metrics:          metrics,
	}

	if cfg.RedisAddr != "" {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		routerParams.JobsHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(routerParams)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
