package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/warelane/warelane/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTelemetrySession persists a tracked user session.
	TaskTelemetrySession = "telemetry:session"
	// TaskTelemetryAction persists a tracked user action.
	TaskTelemetryAction = "telemetry:action"
	// TaskAdjustmentNotice notifies operations after a count adjustment posts.
	TaskAdjustmentNotice = "mail:adjustment-notice"
)

// AdjustmentNoticePayload describes an adjustment notification email.
type AdjustmentNoticePayload struct {
	To        string `json:"to"`
	Reference string `json:"reference"`
	Warehouse string `json:"warehouse"`
	Date      string `json:"date"`
	LineCount int    `json:"line_count"`
}

// NewTelemetrySessionTask wraps a session record for queueing.
func NewTelemetrySessionTask(rec audit.SessionRecord) (*asynq.Task, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTelemetrySession, data), nil
}

// NewTelemetryActionTask wraps an action record for queueing.
func NewTelemetryActionTask(rec audit.ActionRecord) (*asynq.Task, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTelemetryAction, data), nil
}

// NewAdjustmentNoticeTask wraps an adjustment notice for queueing.
func NewAdjustmentNoticeTask(payload AdjustmentNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAdjustmentNotice, data), nil
}

// HandleAdjustmentNoticeTask processes TaskAdjustmentNotice tasks.
func HandleAdjustmentNoticeTask(t *asynq.Task) error {
	var payload AdjustmentNoticePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP once a relay is provisioned.
	fmt.Printf("[jobs] adjustment notice to %s reference=%s warehouse=%s lines=%d\n",
		payload.To, payload.Reference, payload.Warehouse, payload.LineCount)
	return nil
}
