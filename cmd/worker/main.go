package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/vitrine-commerce/vitrine/internal/app"
	"github.com/vitrine-commerce/vitrine/internal/audit"
	"github.com/vitrine-commerce/vitrine/internal/executive"
	jobmetrics "github.com/vitrine-commerce/vitrine/internal/jobs"
	"github.com/vitrine-commerce/vitrine/internal/platform/cache"
	"github.com/vitrine-commerce/vitrine/internal/platform/db"
	"github.com/vitrine-commerce/vitrine/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Warn("redis unavailable, snapshot runs will not bump the cache", slog.Any("error", err))
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
	}

	executiveRepo := executive.NewPgRepository(pool)
	snapshotter := executive.NewSnapshotter(executiveRepo, executive.DefaultCostProvider(), kpiCache, logger)

	metrics := jobmetrics.NewMetrics(nil)
	snapshotJob := jobs.NewSnapshotJob(snapshotter, logger, metrics)
	auditJob := jobs.NewAuditRecordJob(audit.NewService(audit.NewPgRepository(pool)), logger, metrics)

	dailyTask, err := jobs.NewDailySnapshotTask("")
	if err != nil {
		logger.Error("build daily snapshot task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotDaily, Handler: snapshotJob.HandleDaily},
			{Type: jobs.TaskSnapshotMonthly, Handler: snapshotJob.HandleMonthly},
			{Type: jobs.TaskAuditRecord, Handler: auditJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "59 23 * * *", Task: dailyTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

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

	monthEnd := jobs.NewMonthEndScheduler(queue, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		return monthEnd.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
