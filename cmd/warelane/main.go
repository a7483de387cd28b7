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

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/warelane/warelane/internal/app"
	"github.com/warelane/warelane/internal/audit"
	"github.com/warelane/warelane/internal/auth"
	"github.com/warelane/warelane/internal/count"
	"github.com/warelane/warelane/internal/inventory"
	"github.com/warelane/warelane/internal/masterdata"
	"github.com/warelane/warelane/internal/observability"
	"github.com/warelane/warelane/internal/platform/db"
	"github.com/warelane/warelane/internal/reports"
	"github.com/warelane/warelane/internal/shared"
	"github.com/warelane/warelane/internal/transactions"
	"github.com/warelane/warelane/jobs"
)

// adjustmentNotifier queues an email notice when a count posts an
// adjustment.
type adjustmentNotifier struct {
	client *jobs.Client
	logger *slog.Logger
	to     string
}

func (n *adjustmentNotifier) AdjustmentPosted(ctx context.Context, header transactions.Header, lineCount int) {
	err := n.client.EnqueueAdjustmentNotice(ctx, jobs.AdjustmentNoticePayload{
		To:        n.to,
		Reference: header.ReferenceNumber,
		Warehouse: header.Warehouse,
		Date:      header.Date.Format("2006-01-02"),
		LineCount: lineCount,
	})
	if err != nil {
		n.logger.Warn("adjustment notice enqueue failed", slog.Any("error", err))
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "warelane_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo, queueClient, logger)
	auditHandler := audit.NewHandler(logger, auditService)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, csrfManager, auditService)

	masterdataRepo := masterdata.NewRepository(pool)
	masterdataService := masterdata.NewService(masterdataRepo, auditService)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, auditService)
	transactionsHandler := transactions.NewHandler(logger, transactionsService)

	countService := count.NewService(inventoryService, transactionsService)
	countService.SetNotifier(&adjustmentNotifier{
		client: queueClient,
		logger: logger,
		to:     cfg.AdjustmentNoticeTo,
	})
	countHandler := count.NewHandler(logger, countService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo)
	reportsHandler := reports.NewHandler(logger, reportsService)

	queueInspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewJobsHandler(queueInspector, logger)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			Metrics:        metrics,
		},
		Auth:         authHandler,
		Audit:        auditHandler,
		Inventory:    inventoryHandler,
		Count:        countHandler,
		MasterData:   masterdataHandler,
		Transactions: transactionsHandler,
		Reports:      reportsHandler,
		Jobs:         jobsHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
