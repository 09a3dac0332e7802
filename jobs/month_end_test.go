package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextMonthEndRun(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{
			"mid month",
			time.Date(2025, 6, 10, 12, 0, 0, 0, loc),
			time.Date(2025, 6, 30, 23, 58, 0, 0, loc),
		},
		{
			"just before fire on last day",
			time.Date(2025, 6, 30, 23, 57, 0, 0, loc),
			time.Date(2025, 6, 30, 23, 58, 0, 0, loc),
		},
		{
			"exactly at fire rolls to next month",
			time.Date(2025, 6, 30, 23, 58, 0, 0, loc),
			time.Date(2025, 7, 31, 23, 58, 0, 0, loc),
		},
		{
			"february leap year",
			time.Date(2024, 2, 10, 8, 0, 0, 0, loc),
			time.Date(2024, 2, 29, 23, 58, 0, 0, loc),
		},
		{
			"february common year",
			time.Date(2025, 2, 10, 8, 0, 0, 0, loc),
			time.Date(2025, 2, 28, 23, 58, 0, 0, loc),
		},
		{
			"december rolls into january",
			time.Date(2025, 12, 31, 23, 59, 0, 0, loc),
			time.Date(2026, 1, 31, 23, 58, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextMonthEndRun(tc.after, loc))
		})
	}
}
