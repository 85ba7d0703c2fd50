package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sobook-erp/sobook/cmd/sobook/cli"
	"github.com/sobook-erp/sobook/internal/app"
	"github.com/sobook-erp/sobook/internal/balances"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, finService, cfg.PeriodClosingDay, logger).
		WithEnqueuer(jobsClient)
	finService.WithPeriodStates(periodsService)

	ledgerService := ledger.NewService(ledgerRepo, logger).
		WithPeriodGate(periodsService).
		WithBalanceRules(balances.Rules{}).
		WithInvalidator(finService)

	balancesService := balances.NewService(ledgerRepo)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledger.NewHandler(logger, ledgerService),
		FinHandler:      fin.NewHandler(logger, finService),
		PeriodsHandler:  periods.NewHandler(logger, periodsService),
		BalancesHandler: balances.NewHandler(logger, balancesService),
		JobsHandler:     jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
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

// runJobsCommand handles `sobook jobs trigger|stats` without starting the
// HTTP server.
func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	if len(args) == 0 {
		return fmt.Errorf("usage: sobook jobs trigger <task> [period] | sobook jobs stats")
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("usage: sobook jobs trigger <task> [period]")
		}
		if args[1] == jobs.TaskReportWarmup && len(args) > 2 {
			info, err := jobsCLI.TriggerReportWarmup(ctx, args[2])
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %s id=%s\n", info.Type, info.ID)
			return nil
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s\n", info.Type, info.ID)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return nil
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
}
