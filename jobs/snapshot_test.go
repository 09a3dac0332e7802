package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-commerce/vitrine/internal/executive"
)

type fakeRunner struct {
	dailyTargets   []time.Time
	monthlyTargets []time.Time
	err            error
}

func (r *fakeRunner) RunDaily(_ context.Context, target time.Time) (executive.Snapshot, error) {
	r.dailyTargets = append(r.dailyTargets, target)
	return executive.Snapshot{PeriodType: executive.PeriodDaily}, r.err
}

func (r *fakeRunner) RunMonthly(_ context.Context, target time.Time) (executive.Snapshot, error) {
	r.monthlyTargets = append(r.monthlyTargets, target)
	return executive.Snapshot{PeriodType: executive.PeriodMonthly}, r.err
}

func TestHandleDailyParsesRef(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSnapshotJob(runner, nil, nil)

	task, err := NewDailySnapshotTask("2025-06-14")
	require.NoError(t, err)
	require.NoError(t, job.HandleDaily(context.Background(), task))

	require.Len(t, runner.dailyTargets, 1)
	want := time.Date(2025, 6, 14, 0, 0, 0, 0, SnapshotLocation())
	assert.True(t, runner.dailyTargets[0].Equal(want))
}

func TestHandleDailyEmptyRefUsesClock(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSnapshotJob(runner, nil, nil)
	now := time.Date(2025, 6, 14, 23, 59, 0, 0, SnapshotLocation())
	job.WithClock(func() time.Time { return now })

	task, err := NewDailySnapshotTask("")
	require.NoError(t, err)
	require.NoError(t, job.HandleDaily(context.Background(), task))

	require.Len(t, runner.dailyTargets, 1)
	assert.True(t, runner.dailyTargets[0].Equal(now))
}

func TestHandleMonthlyParsesRef(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSnapshotJob(runner, nil, nil)

	task, err := NewMonthlySnapshotTask("2025-05")
	require.NoError(t, err)
	require.NoError(t, job.HandleMonthly(context.Background(), task))

	require.Len(t, runner.monthlyTargets, 1)
	assert.Equal(t, time.May, runner.monthlyTargets[0].Month())
}

func TestHandleDailyRunFailureIsSwallowed(t *testing.T) {
	runner := &fakeRunner{err: errors.New("db down")}
	job := NewSnapshotJob(runner, nil, nil)

	task, err := NewDailySnapshotTask("2025-06-14")
	require.NoError(t, err)

	// The run failed, but the handler must not surface it: no retry, and the
	// scheduler keeps going.
	assert.NoError(t, job.HandleDaily(context.Background(), task))
}

func TestHandleDailyBadRefSkipsRetry(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSnapshotJob(runner, nil, nil)

	task, err := NewDailySnapshotTask("14/06/2025")
	require.NoError(t, err)

	err = job.HandleDaily(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, runner.dailyTargets)
}

func TestHandleDailyBadPayloadSkipsRetry(t *testing.T) {
	job := NewSnapshotJob(&fakeRunner{}, nil, nil)
	task := asynq.NewTask(TaskSnapshotDaily, []byte("{not json"))

	assert.ErrorIs(t, job.HandleDaily(context.Background(), task), asynq.SkipRetry)
}
