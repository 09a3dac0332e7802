package jobs

import (
	"context"
	"log/slog"
	"time"
)

// The monthly snapshot fires on the last day of each month at 23:58 local
// time, one minute ahead of the daily run.
const (
	monthEndHour   = 23
	monthEndMinute = 58
)

// MonthlyEnqueuer queues a monthly snapshot run.
type MonthlyEnqueuer interface {
	EnqueueMonthlySnapshot(ctx context.Context, ref string) error
}

// MonthEndScheduler fires the monthly snapshot task at the last instant it
// can be computed for the closing month. The fire time is an explicit
// calendar computation (first day of next month minus one day), so no
// day-range heuristic or runtime last-day re-check is needed.
type MonthEndScheduler struct {
	enq    MonthlyEnqueuer
	loc    *time.Location
	logger *slog.Logger
	clock  func() time.Time
}

// NewMonthEndScheduler constructs the scheduler against the fixed snapshot
// timezone.
func NewMonthEndScheduler(enq MonthlyEnqueuer, logger *slog.Logger) *MonthEndScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonthEndScheduler{enq: enq, loc: SnapshotLocation(), logger: logger, clock: time.Now}
}

// WithClock overrides the scheduler clock for testing.
func (s *MonthEndScheduler) WithClock(fn func() time.Time) {
	if fn != nil {
		s.clock = fn
	}
}

// NextMonthEndRun returns the first month-end fire instant strictly after
// the given time, in loc.
func NextMonthEndRun(after time.Time, loc *time.Location) time.Time {
	after = after.In(loc)
	year, month, _ := after.Date()
	// Last day of the current month: first day of next month minus one day.
	lastDay := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	fire := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), monthEndHour, monthEndMinute, 0, 0, loc)
	if fire.After(after) {
		return fire
	}
	lastDay = time.Date(year, month+2, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), monthEndHour, monthEndMinute, 0, 0, loc)
}

// Run enqueues the monthly snapshot at each computed month end until the
// context is cancelled. Enqueue failures are logged and the scheduler re-arms
// for the next month; the closing month is then covered by a manual trigger.
func (s *MonthEndScheduler) Run(ctx context.Context) error {
	for {
		now := s.clock()
		fire := NextMonthEndRun(now, s.loc)
		timer := time.NewTimer(fire.Sub(now))
		s.logger.Info("monthly snapshot armed", slog.Time("fire_at", fire))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		ref := fire.Format("2006-01")
		if err := s.enq.EnqueueMonthlySnapshot(ctx, ref); err != nil {
			s.logger.Error("monthly snapshot enqueue failed", slog.String("ref", ref), slog.Any("error", err))
		}
	}
}
