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

	"github.com/vitrine-commerce/vitrine/internal/app"
	"github.com/vitrine-commerce/vitrine/internal/audit"
	"github.com/vitrine-commerce/vitrine/internal/executive"
	executivehttp "github.com/vitrine-commerce/vitrine/internal/executive/http"
	"github.com/vitrine-commerce/vitrine/internal/observability"
	"github.com/vitrine-commerce/vitrine/internal/platform/cache"
	"github.com/vitrine-commerce/vitrine/internal/platform/db"
	"github.com/vitrine-commerce/vitrine/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, serving without cache", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var kpiCache *executive.Cache
	if redisClient != nil {
		kpiCache = executive.NewCache(redisClient, cfg.CacheTTL)
		go func() {
			if err := kpiCache.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("cache invalidation listener stopped", slog.Any("error", err))
			}
		}()
	}

	executiveRepo := executive.NewPgRepository(pool)
	executiveService := executive.NewService(executiveRepo, kpiCache, executive.DefaultCostProvider())

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	accessRecorder := audit.NewRecorder(queue, logger)
	metrics := observability.NewMetrics()

	executiveHandler := executivehttp.NewHandler(logger, executiveService, queue, accessRecorder)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ExecutiveHandler: executiveHandler,
		Metrics:          metrics,
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
