package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sobook-erp/sobook/internal/app"
	"github.com/sobook-erp/sobook/internal/fin"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/observability"
	"github.com/sobook-erp/sobook/internal/periods"
	"github.com/sobook-erp/sobook/internal/platform/cache"
	"github.com/sobook-erp/sobook/internal/platform/db"
	"github.com/sobook-erp/sobook/jobs"
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

	ledgerRepo := ledger.NewRepository(pool)
	finCache := fin.NewCache(redisClient, 24*time.Hour)
	finService := fin.NewService(ledgerRepo, finCache, fin.Config{BaselineRate: cfg.BaselineRate()}, logger)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, finService, cfg.PeriodClosingDay, logger)
	finService.WithPeriodStates(periodsService)

	metrics := observability.NewMetrics()
	warmupJob := jobs.NewReportWarmupJob(finService, periodsService, logger, metrics)

	// The nightly run keeps the active period's report warm so the first
	// dashboard hit of the day is served from cache.
	nightlyWarmup, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: nightlyWarmup, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
