package executive

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Snapshotter computes daily and monthly aggregates and persists them with
// overwrite semantics: re-running a period always leaves exactly one row per
// (periodType, periodRef) key.
type Snapshotter struct {
	repo   Repository
	costs  CostProvider
	cache  *Cache
	logger *slog.Logger
	clock  func() time.Time
}

// NewSnapshotter wires the snapshot computation. A nil cost provider falls
// back to the ratio proxy; a nil cache skips invalidation.
func NewSnapshotter(repo Repository, costs CostProvider, cache *Cache, logger *slog.Logger) *Snapshotter {
	if costs == nil {
		costs = DefaultCostProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{repo: repo, costs: costs, cache: cache, logger: logger, clock: time.Now}
}

// WithClock overrides the snapshotter clock for testing.
func (s *Snapshotter) WithClock(fn func() time.Time) {
	if fn != nil {
		s.clock = fn
	}
}

// RunDaily aggregates the local calendar day of target and persists the
// daily snapshot. A zero target defaults to the invocation date.
func (s *Snapshotter) RunDaily(ctx context.Context, target time.Time) (Snapshot, error) {
	if target.IsZero() {
		target = s.clock()
	}
	year, month, day := target.Date()
	loc := target.Location()
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day, 23, 59, 59, 0, loc)
	return s.run(ctx, PeriodDaily, start.Format("2006-01-02"), start, end)
}

// RunMonthly aggregates the local calendar month of target and persists the
// monthly snapshot. A zero target defaults to the invocation month.
func (s *Snapshotter) RunMonthly(ctx context.Context, target time.Time) (Snapshot, error) {
	if target.IsZero() {
		target = s.clock()
	}
	year, month, _ := target.Date()
	loc := target.Location()
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
	return s.run(ctx, PeriodMonthly, start.Format("2006-01"), start, end)
}

func (s *Snapshotter) run(ctx context.Context, periodType, periodRef string, start, end time.Time) (Snapshot, error) {
	orders, err := s.repo.OrdersWithItemsBetween(ctx, start, end)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s %s: load orders: %w", periodType, periodRef, err)
	}

	var revenue float64
	for _, order := range orders {
		revenue += order.Total
	}
	cost := s.costs.CostOf(revenue)
	snap := Snapshot{
		PeriodType:  periodType,
		PeriodRef:   periodRef,
		Revenue:     revenue,
		Cost:        cost,
		GrossProfit: revenue - cost,
		OrdersCount: len(orders),
		AvgTicket:   safeDiv(revenue, len(orders)),
		GeneratedAt: s.clock(),
	}

	if err := s.repo.ReplaceSnapshot(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s %s: persist: %w", periodType, periodRef, err)
	}

	if err := s.cache.Bump(ctx); err != nil {
		// Stale cached KPIs expire on TTL; not worth failing the run.
		s.logger.Warn("snapshot cache bump failed", slog.String("period_ref", periodRef), slog.Any("error", err))
	}

	s.logger.Info("snapshot persisted",
		slog.String("period_type", periodType),
		slog.String("period_ref", periodRef),
		slog.Float64("revenue", snap.Revenue),
		slog.Int("orders", snap.OrdersCount),
	)
	return snap, nil
}
