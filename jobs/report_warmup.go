package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sobook-erp/sobook/internal/observability"
	"github.com/sobook-erp/sobook/internal/periods"
)

// ReportWarmer recompiles a period report and stores it in the cache.
type ReportWarmer interface {
	WarmCache(ctx context.Context, period string) error
}

// ActivePeriods resolves the currently open period for the nightly warmup.
type ActivePeriods interface {
	Current(ctx context.Context) (periods.Period, error)
}

// ReportWarmupJob handles report warmup tasks.
type ReportWarmupJob struct {
	Reports ReportWarmer
	Periods ActivePeriods
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports ReportWarmer, activePeriods ActivePeriods, logger *slog.Logger, metrics *observability.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reports,
		Periods: activePeriods,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskReportWarmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	start := j.now()

	period := payload.Period
	if period == "" {
		current, ok, err := j.currentPeriod(ctx)
		if err != nil {
			j.observe("error", start)
			logger.Error("resolve active period", slog.Any("error", err))
			return err
		}
		if !ok {
			// Nothing open, nothing to warm.
			logger.Info("no active period, skipping warmup")
			j.observe("skipped", start)
			return nil
		}
		period = current.ID
	}

	if err := j.Reports.WarmCache(ctx, period); err != nil {
		j.observe("error", start)
		logger.Error("warm report cache", slog.String("period", period), slog.Any("error", err))
		return err
	}

	j.observe("ok", start)
	logger.Info("report cache warmed", slog.String("period", period), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ReportWarmupJob) currentPeriod(ctx context.Context) (periods.Period, bool, error) {
	if j.Periods == nil {
		return periods.Period{}, false, nil
	}
	current, err := j.Periods.Current(ctx)
	if err != nil {
		if errors.Is(err, periods.ErrNoActivePeriod) {
			return periods.Period{}, false, nil
		}
		return periods.Period{}, false, err
	}
	return current, true, nil
}

func (j *ReportWarmupJob) observe(status string, start time.Time) {
	j.Metrics.ObserveJob(TaskReportWarmup, status, time.Since(start))
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
