package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vitrine-commerce/vitrine/internal/executive"
	jobmetrics "github.com/vitrine-commerce/vitrine/internal/jobs"
)

// SnapshotRunner computes and persists one period aggregate.
type SnapshotRunner interface {
	RunDaily(ctx context.Context, target time.Time) (executive.Snapshot, error)
	RunMonthly(ctx context.Context, target time.Time) (executive.Snapshot, error)
}

// SnapshotJob handles scheduled and manually triggered snapshot tasks. Run
// failures are logged with the period key and swallowed: they must neither
// halt the scheduler nor trigger a retry, so every run is at-most-once.
type SnapshotJob struct {
	Runner  SnapshotRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSnapshotJob wires dependencies for the snapshot handlers.
func NewSnapshotJob(runner SnapshotRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotJob {
	return &SnapshotJob{
		Runner:  runner,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().In(SnapshotLocation())
		},
	}
}

// WithClock overrides the job clock for testing.
func (j *SnapshotJob) WithClock(fn func() time.Time) {
	if fn != nil {
		j.clock = fn
	}
}

// HandleDaily processes TaskSnapshotDaily tasks.
func (j *SnapshotJob) HandleDaily(ctx context.Context, t *asynq.Task) error {
	return j.handle(ctx, t, "2006-01-02", TaskSnapshotDaily, executive.PeriodDaily)
}

// HandleMonthly processes TaskSnapshotMonthly tasks.
func (j *SnapshotJob) HandleMonthly(ctx context.Context, t *asynq.Task) error {
	return j.handle(ctx, t, "2006-01", TaskSnapshotMonthly, executive.PeriodMonthly)
}

func (j *SnapshotJob) handle(ctx context.Context, t *asynq.Task, layout, job, periodType string) error {
	if j == nil || j.Runner == nil {
		return errors.New("snapshot job: handler not configured")
	}
	run := j.Runner.RunDaily
	if periodType == executive.PeriodMonthly {
		run = j.Runner.RunMonthly
	}
	var payload SnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	target := j.clock()
	if payload.Ref != "" {
		parsed, err := time.ParseInLocation(layout, payload.Ref, SnapshotLocation())
		if err != nil {
			j.logger().Warn("snapshot target unparsable, skipping run",
				slog.String("job", job), slog.String("ref", payload.Ref))
			return asynq.SkipRetry
		}
		target = parsed
	}

	tracker := j.metrics().Track(job)
	_, err := run(ctx, target)
	_ = tracker.End(err)
	if err != nil {
		// Caught here: the run is at-most-once and the scheduler keeps going.
		j.logger().Error("snapshot run failed",
			slog.String("job", job),
			slog.String("period_ref", target.Format(layout)),
			slog.Any("error", err),
		)
		return nil
	}
	j.metrics().AddSnapshot(periodType)
	return nil
}

func (j *SnapshotJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SnapshotJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
