package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vitrine-commerce/vitrine/internal/audit"
	jobmetrics "github.com/vitrine-commerce/vitrine/internal/jobs"
)

// AuditRecordJob persists access-audit entries enqueued by the API. Failures
// stay inside the job: audit is fire-and-forget end to end.
type AuditRecordJob struct {
	Service *audit.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditRecordJob wires dependencies for the audit handler.
func NewAuditRecordJob(service *audit.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditRecordJob {
	return &AuditRecordJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAuditRecord tasks.
func (j *AuditRecordJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("audit job: handler not configured")
	}
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAuditRecord)
	err := j.Service.Record(ctx, entry)
	_ = tracker.End(err)
	if err != nil {
		logger := j.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("audit record failed", slog.String("target_id", entry.TargetID), slog.Any("error", err))
		return nil
	}
	return nil
}
