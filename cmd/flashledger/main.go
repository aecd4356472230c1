package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flashledger/flashledger/internal/accounting/accounts"
	"github.com/flashledger/flashledger/internal/accounting/journals"
	"github.com/flashledger/flashledger/internal/accounting/reports"
	"github.com/flashledger/flashledger/internal/app"
	"github.com/flashledger/flashledger/internal/masterdata/branches"
	"github.com/flashledger/flashledger/internal/platform/cache"
	"github.com/flashledger/flashledger/internal/platform/db"
	"github.com/flashledger/flashledger/internal/salesimport"
	"github.com/flashledger/flashledger/internal/salesimport/costing"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accountRepo := accounts.NewRepository(dbpool)
	journalRepo := journals.NewRepository(dbpool)
	branchRepo := branches.NewRepository(dbpool)

	plCache := cache.New(redisClient, cfg.PLCacheTTL)

	costResolver := costing.NewResolver(costing.NewRepository(dbpool))
	importRepo := salesimport.NewRepository(dbpool)
	settingsRepo := salesimport.NewSettingsRepository(dbpool)
	importService := salesimport.NewService(logger, importRepo, journalRepo, accountRepo, branchRepo, costResolver, settingsRepo, plCache)
	importHandler := salesimport.NewHandler(logger, importService)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(logger, reportsRepo, branchRepo, plCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	branchesHandler := branches.NewHandler(logger, branchRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SalesImportHandler: importHandler,
		ReportsHandler:     reportsHandler,
		BranchesHandler:    branchesHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
