// Package jobs runs the asynchronous task queue: the asynq worker, the
// cron scheduler, and the enqueue client used by the HTTP application.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup recompiles a period report and primes the cache.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload names the period to warm. An empty period means the
// currently active one, which is what the nightly cron enqueues.
type ReportWarmupPayload struct {
	Period string `json:"period"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
