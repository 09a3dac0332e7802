package jobs

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vitrine-commerce/vitrine/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskSnapshotDaily computes and persists the daily analytics snapshot.
	TaskSnapshotDaily = "snapshot:daily"
	// TaskSnapshotMonthly computes and persists the monthly analytics snapshot.
	TaskSnapshotMonthly = "snapshot:monthly"
	// TaskAuditRecord persists one access-audit entry.
	TaskAuditRecord = "audit:record"
)

// The snapshot schedule runs against one fixed store timezone. It is not
// runtime-configurable.
const snapshotTimezone = "America/Sao_Paulo"

var (
	locationOnce sync.Once
	location     *time.Location
)

// SnapshotLocation returns the fixed timezone snapshot windows are anchored
// to, falling back to the host zone if the tzdata lookup fails.
func SnapshotLocation() *time.Location {
	locationOnce.Do(func() {
		loc, err := time.LoadLocation(snapshotTimezone)
		if err != nil {
			loc = time.Local
		}
		location = loc
	})
	return location
}

// SnapshotPayload targets a snapshot run at a specific period. An empty Ref
// means the invocation date (daily) or month (monthly).
type SnapshotPayload struct {
	Ref string `json:"ref,omitempty"`
}

// NewDailySnapshotTask constructs the daily snapshot task. ref is a
// `2006-01-02` date or empty for the invocation date.
func NewDailySnapshotTask(ref string) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotPayload{Ref: ref})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotDaily, data), nil
}

// NewMonthlySnapshotTask constructs the monthly snapshot task. ref is a
// `2006-01` month or empty for the invocation month.
func NewMonthlySnapshotTask(ref string) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotPayload{Ref: ref})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotMonthly, data), nil
}

// NewAuditRecordTask constructs an audit persistence task.
func NewAuditRecordTask(entry audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}
