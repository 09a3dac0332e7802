package executive

import (
	"strconv"
	"strings"
	"time"
)

const defaultTrailingDays = 30

var periodLayouts = []string{"2006-01-02", time.RFC3339}

// PeriodFilter bounds an aggregation query. Both bounds are always populated
// after resolution.
type PeriodFilter struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (p PeriodFilter) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Previous returns the immediately preceding window of identical duration,
// ending one millisecond before Start.
func (p PeriodFilter) Previous() PeriodFilter {
	end := p.Start.Add(-time.Millisecond)
	return PeriodFilter{Start: end.Add(-p.Duration()), End: end}
}

// ResolvePeriodFilter turns optional, possibly malformed date inputs into a
// canonical window. When both bounds parse, the end is clamped to
// 23:59:59.999 local time. Any other combination falls back to a trailing
// window of `days` ending at now (default 30), with the start truncated to
// midnight. Malformed input never fails; it silently falls back.
func ResolvePeriodFilter(startDate, endDate, days string, now time.Time) PeriodFilter {
	loc := now.Location()

	start, startOK := parsePeriodDate(startDate, loc)
	end, endOK := parsePeriodDate(endDate, loc)
	if startOK && endOK {
		y, m, d := end.Date()
		end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
		return PeriodFilter{Start: start, End: end}
	}

	trailing := defaultTrailingDays
	if parsed, err := strconv.Atoi(strings.TrimSpace(days)); err == nil {
		trailing = parsed
	}
	start = now.AddDate(0, 0, -trailing)
	y, m, d := start.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	return PeriodFilter{Start: start, End: now}
}

func parsePeriodDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range periodLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
