package executivehttp

import (
	"time"

	"github.com/vitrine-commerce/vitrine/internal/executive"
)

type periodDTO struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type successEnvelope struct {
	Success     bool       `json:"success"`
	Data        any        `json:"data"`
	Period      *periodDTO `json:"period,omitempty"`
	GeneratedAt string     `json:"generatedAt"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// newEnvelope wraps a KPI result with optional period bounds and the
// generation timestamp, all as ISO-8601 strings.
func newEnvelope(data any, period *executive.PeriodFilter, now time.Time) successEnvelope {
	env := successEnvelope{
		Success:     true,
		Data:        data,
		GeneratedAt: now.Format(time.RFC3339),
	}
	if period != nil {
		env.Period = &periodDTO{
			StartDate: period.Start.Format(time.RFC3339),
			EndDate:   period.End.Format(time.RFC3339),
		}
	}
	return env
}

type snapshotTriggerRequest struct {
	// Target date for a daily run, `2006-01-02`. Empty means today.
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	// Target month for a monthly run, `2006-01`. Empty means the current month.
	Month string `json:"month" validate:"omitempty,datetime=2006-01"`
}

type snapshotQueuedDTO struct {
	PeriodType string `json:"periodType"`
	PeriodRef  string `json:"periodRef,omitempty"`
	Queued     bool   `json:"queued"`
}
