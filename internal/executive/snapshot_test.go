package executive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDailyAggregatesCalendarDay(t *testing.T) {
	repo := newFakeRepo()
	repo.orders = []Order{
		order("o1", StatusDelivered, 100, "a@x.com", "A", day(14, 0)),
		order("o2", StatusPaid, 50, "b@x.com", "B", day(14, 23)),
		order("outside", StatusDelivered, 999, "c@x.com", "C", day(15, 0)),
		order("cancel", StatusCancelled, 500, "d@x.com", "D", day(14, 12)),
	}

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(14, 23)))

	snap, err := snapper.RunDaily(context.Background(), day(14, 10))
	require.NoError(t, err)

	assert.Equal(t, PeriodDaily, snap.PeriodType)
	assert.Equal(t, "2025-06-14", snap.PeriodRef)
	assert.InDelta(t, 150, snap.Revenue, 1e-9)
	assert.InDelta(t, 90, snap.Cost, 1e-9)
	assert.InDelta(t, 60, snap.GrossProfit, 1e-9)
	assert.Equal(t, 2, snap.OrdersCount)
	assert.InDelta(t, 75, snap.AvgTicket, 1e-9)
}

func TestRunDailyDefaultsToInvocationDate(t *testing.T) {
	repo := newFakeRepo()
	repo.orders = []Order{
		order("o1", StatusDelivered, 100, "a@x.com", "A", day(14, 10)),
	}

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(14, 23)))

	snap, err := snapper.RunDaily(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-14", snap.PeriodRef)
	assert.InDelta(t, 100, snap.Revenue, 1e-9)
}

func TestRunMonthlyCoversWholeMonth(t *testing.T) {
	repo := newFakeRepo()
	repo.orders = []Order{
		order("first", StatusDelivered, 10, "a@x.com", "A", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		order("last", StatusPaid, 20, "b@x.com", "B", time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC)),
		order("july", StatusDelivered, 999, "c@x.com", "C", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
	}

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(30, 23)))

	snap, err := snapper.RunMonthly(context.Background(), day(15, 12))
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, snap.PeriodType)
	assert.Equal(t, "2025-06", snap.PeriodRef)
	assert.InDelta(t, 30, snap.Revenue, 1e-9)
	assert.Equal(t, 2, snap.OrdersCount)
}

func TestRunDailyIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.orders = []Order{
		order("o1", StatusDelivered, 100, "a@x.com", "A", day(14, 10)),
	}

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(14, 23)))

	_, err := snapper.RunDaily(context.Background(), day(14, 10))
	require.NoError(t, err)

	// A late order lands before the rerun; the stored row must carry the new
	// aggregate and stay unique for the period key.
	repo.orders = append(repo.orders, order("o2", StatusPaid, 60, "b@x.com", "B", day(14, 11)))
	_, err = snapper.RunDaily(context.Background(), day(14, 10))
	require.NoError(t, err)

	assert.Equal(t, 2, repo.replaceCalls)
	require.Len(t, repo.snapshots, 1)
	stored := repo.snapshots["daily/2025-06-14"]
	assert.InDelta(t, 160, stored.Revenue, 1e-9)
	assert.Equal(t, 2, stored.OrdersCount)
}

func TestRunDailyEmptyWindow(t *testing.T) {
	repo := newFakeRepo()

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(14, 23)))

	snap, err := snapper.RunDaily(context.Background(), day(14, 10))
	require.NoError(t, err)
	assert.Zero(t, snap.Revenue)
	assert.Zero(t, snap.OrdersCount)
	assert.Zero(t, snap.AvgTicket)
	assert.Equal(t, 1, repo.replaceCalls)
}

func TestRunDailyPersistErrorWrapsPeriod(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshotErr = errors.New("boom")

	snapper := NewSnapshotter(repo, nil, nil, nil)
	snapper.WithClock(fixedClock(day(14, 23)))

	_, err := snapper.RunDaily(context.Background(), day(14, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-06-14")
}
