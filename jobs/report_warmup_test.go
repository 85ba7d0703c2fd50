package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/periods"
)

type recordingWarmer struct {
	warmed []string
	err    error
}

func (w *recordingWarmer) WarmCache(_ context.Context, period string) error {
	if w.err != nil {
		return w.err
	}
	w.warmed = append(w.warmed, period)
	return nil
}

type staticPeriods struct {
	current periods.Period
	err     error
}

func (p staticPeriods) Current(context.Context) (periods.Period, error) {
	return p.current, p.err
}

func warmupTask(t *testing.T, period string) *asynq.Task {
	t.Helper()
	task, err := NewReportWarmupTask(ReportWarmupPayload{Period: period})
	require.NoError(t, err)
	return task
}

func TestReportWarmupHandlesExplicitPeriod(t *testing.T) {
	warmer := &recordingWarmer{}
	job := NewReportWarmupJob(warmer, nil, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, "2024-03"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03"}, warmer.warmed)
}

func TestReportWarmupFallsBackToActivePeriod(t *testing.T) {
	warmer := &recordingWarmer{}
	active := staticPeriods{current: periods.Period{
		ID:       "2024-04",
		Status:   periods.StatusActive,
		OpenedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}}
	job := NewReportWarmupJob(warmer, active, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, ""))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-04"}, warmer.warmed)
}

func TestReportWarmupSkipsWhenNothingOpen(t *testing.T) {
	warmer := &recordingWarmer{}
	job := NewReportWarmupJob(warmer, staticPeriods{err: periods.ErrNoActivePeriod}, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, ""))
	require.NoError(t, err)
	require.Empty(t, warmer.warmed)
}

func TestReportWarmupRejectsMalformedPayload(t *testing.T) {
	job := NewReportWarmupJob(&recordingWarmer{}, nil, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskReportWarmup, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
