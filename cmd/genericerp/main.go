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

	"github.com/carlosryandeveloper/GenericERP/internal/app"
	"github.com/carlosryandeveloper/GenericERP/internal/auth"
	"github.com/carlosryandeveloper/GenericERP/internal/catalog/categories"
	"github.com/carlosryandeveloper/GenericERP/internal/catalog/products"
	"github.com/carlosryandeveloper/GenericERP/internal/ledger"
	"github.com/carlosryandeveloper/GenericERP/internal/platform/cache"
	"github.com/carlosryandeveloper/GenericERP/internal/platform/db"
	"github.com/carlosryandeveloper/GenericERP/internal/quotes"
	"github.com/carlosryandeveloper/GenericERP/internal/reports"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
	"github.com/carlosryandeveloper/GenericERP/jobs"
)

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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	mailQueue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := mailQueue.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	tokenCache := auth.NewTokenCache(redisClient, cfg.TokenCacheTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokenCache, mailQueue, logger, auth.ServiceConfig{
		TokenTTL:     cfg.TokenTTL,
		ResetCodeTTL: cfg.ResetCodeTTL,
	})
	authHandler := auth.NewHandler(logger, authService)

	categoriesService := categories.NewService(categories.NewRepository(dbpool))
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	productsService := products.NewService(products.NewRepository(dbpool), categoriesService)
	productsHandler := products.NewHandler(logger, productsService)

	auditLogger := shared.NewAuditLogger(dbpool)

	ledgerService := ledger.NewService(ledger.NewRepository(dbpool), auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	quotesService := quotes.NewService(quotes.NewRepository(dbpool))
	quotesHandler := quotes.NewHandler(logger, quotesService)

	reportsService := reports.NewService(reports.NewRepository(dbpool))
	reportsHandler := reports.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		AuthMiddleware:    auth.NewMiddleware(authService),
		CategoriesHandler: categoriesHandler,
		ProductsHandler:   productsHandler,
		LedgerHandler:     ledgerHandler,
		QuotesHandler:     quotesHandler,
		ReportsHandler:    reportsHandler,
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
