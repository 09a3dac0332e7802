package audit

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Enqueuer hands an entry to the background queue.
type Enqueuer interface {
	EnqueueAuditRecord(ctx context.Context, entry Entry) error
}

// Recorder is the API-side audit hook. It never blocks request handling on
// persistence and never surfaces a failure to the caller.
type Recorder struct {
	enq    Enqueuer
	logger *slog.Logger
	clock  func() time.Time
}

// NewRecorder constructs a Recorder. A nil enqueuer disables recording.
func NewRecorder(enq Enqueuer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{enq: enq, logger: logger, clock: time.Now}
}

// RecordAccess enqueues a "View" entry for the endpoint. Enqueue failures are
// logged and discarded.
func (r *Recorder) RecordAccess(ctx context.Context, endpoint string, query url.Values) {
	if r == nil || r.enq == nil {
		return
	}
	details := make(map[string]string, len(query))
	for key := range query {
		details[key] = query.Get(key)
	}
	entry := NewAccessEntry(endpoint, details, r.clock())
	if err := r.enq.EnqueueAuditRecord(ctx, entry); err != nil {
		r.logger.Warn("audit enqueue failed", slog.String("endpoint", endpoint), slog.Any("error", err))
	}
}
