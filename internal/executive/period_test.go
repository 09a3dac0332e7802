package executive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriodFilterExplicitBounds(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	f := ResolvePeriodFilter("2025-06-01", "2025-06-10", "", now)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), f.Start)
	assert.Equal(t, time.Date(2025, 6, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), f.End)
}

func TestResolvePeriodFilterRFC3339(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	f := ResolvePeriodFilter("2025-06-01T08:00:00Z", "2025-06-10T12:00:00Z", "", now)

	// Start keeps the parsed instant; end is clamped to the end of its day.
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), f.Start)
	assert.Equal(t, 10, f.End.Day())
	assert.Equal(t, 23, f.End.Hour())
}

func TestResolvePeriodFilterTrailingDefault(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	f := ResolvePeriodFilter("", "", "", now)

	assert.Equal(t, time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), f.Start)
	assert.Equal(t, now, f.End)
}

func TestResolvePeriodFilterCustomDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	f := ResolvePeriodFilter("", "", "7", now)

	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), f.Start)
}

func TestResolvePeriodFilterMalformedFallsBack(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	// One bad bound discards both and falls back to the trailing window.
	f := ResolvePeriodFilter("2025-06-01", "not-a-date", "", now)
	assert.Equal(t, time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), f.Start)
	assert.Equal(t, now, f.End)

	// Bad days value falls back to 30.
	f = ResolvePeriodFilter("", "", "soon", now)
	assert.Equal(t, time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), f.Start)
}

func TestPeriodFilterPrevious(t *testing.T) {
	f := ResolvePeriodFilter("2025-06-11", "2025-06-20", "", time.Now())
	prev := f.Previous()

	require.True(t, prev.End.Before(f.Start))
	assert.Equal(t, f.Start.Add(-time.Millisecond), prev.End)
	assert.Equal(t, f.Duration(), prev.Duration())
}
