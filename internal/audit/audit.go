// Package audit records access to the executive endpoints. Recording is
// fire-and-forget: the API side enqueues a background task and swallows any
// failure, the worker side persists the entry.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded access.
type Entry struct {
	ID         uuid.UUID         `json:"id"`
	Action     string            `json:"action"`
	TargetType string            `json:"targetType"`
	TargetID   string            `json:"targetId"`
	Details    map[string]string `json:"details,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewAccessEntry builds a "View" entry for an endpoint access with the raw
// query parameters attached.
func NewAccessEntry(endpoint string, query map[string]string, at time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		Action:     "View",
		TargetType: "SYSTEM",
		TargetID:   endpoint,
		Details:    query,
		CreatedAt:  at,
	}
}
