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
	"github.com/joho/godotenv"

	"github.com/gemilang-erp/gemilang-erp/internal/ap"
	"github.com/gemilang-erp/gemilang-erp/internal/app"
	"github.com/gemilang-erp/gemilang-erp/internal/ar"
	"github.com/gemilang-erp/gemilang-erp/internal/audit"
	"github.com/gemilang-erp/gemilang-erp/internal/close"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/ledger/accounts"
	"github.com/gemilang-erp/gemilang-erp/internal/observability"
	"github.com/gemilang-erp/gemilang-erp/internal/partners"
	"github.com/gemilang-erp/gemilang-erp/internal/platform/cache"
	"github.com/gemilang-erp/gemilang-erp/internal/platform/db"
	"github.com/gemilang-erp/gemilang-erp/internal/reports"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
	"github.com/gemilang-erp/gemilang-erp/jobs"
)

func main() {
	_ = godotenv.Load()

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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accountsService := accounts.NewService(accounts.NewRepository(pool))
	partnersService := partners.NewService(partners.NewRepository(pool))

	ledgerService := ledger.NewService(ledger.NewRepository(pool), auditLogger)
	apService := ap.NewService(ap.NewRepository(pool), partnersService, ledgerService, auditLogger)
	arService := ar.NewService(ar.NewRepository(pool), partnersService, ledgerService, auditLogger)
	closeService := close.NewService(close.NewRepository(pool), auditLogger)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reports.NewRepository(pool), reportCache, logger)

	auditService := audit.NewService(audit.NewRepository(pool))

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	// Every committed posting invalidates the cached statements and queues
	// a warm for the current period.
	posted := func(ctx context.Context, source string) {
		metrics.RecordJournalPosted(source)
		if err := reportsService.Invalidate(ctx); err != nil {
			logger.Warn("report cache invalidate", slog.Any("error", err))
		}
		if _, err := jobsClient.EnqueueReportWarm(ctx, ""); err != nil {
			logger.Warn("enqueue report warm", slog.Any("error", err))
		}
	}
	ledgerService.WithPostedHook(posted)
	apService.WithPostedHook(posted)
	arService.WithPostedHook(posted)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledger.NewHandler(logger, ledgerService),
		AccountsHandler: accounts.NewHandler(logger, accountsService),
		PartnersHandler: partners.NewHandler(logger, partnersService),
		APHandler:       ap.NewHandler(logger, apService),
		ARHandler:       ar.NewHandler(logger, arService),
		CloseHandler:    close.NewHandler(logger, closeService),
		ReportsHandler:  reports.NewHandler(logger, reportsService),
		AuditHandler:    audit.NewHandler(logger, auditService),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
