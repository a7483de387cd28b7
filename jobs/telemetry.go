package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/warelane/warelane/internal/audit"
)

// TelemetryWriter persists queued telemetry records.
type TelemetryWriter struct {
	repo   audit.Repository
	logger *slog.Logger
}

// NewTelemetryWriter constructs the telemetry task handler.
func NewTelemetryWriter(repo audit.Repository, logger *slog.Logger) *TelemetryWriter {
	return &TelemetryWriter{repo: repo, logger: logger}
}

// HandleSession writes a tracked session row. A session that was closed
// while the task sat in the queue is still written; the close update is
// keyed by user and catches it.
func (w *TelemetryWriter) HandleSession(ctx context.Context, t *asynq.Task) error {
	if w == nil || w.repo == nil {
		return errors.New("telemetry writer: not configured")
	}
	var rec audit.SessionRecord
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return asynq.SkipRetry
	}

	// The login may have bounced; skip the insert when the user already
	// has an open session.
	existing, err := w.repo.ActiveSession(ctx, rec.UserID)
	if err != nil {
		return err
	}
	if existing != "" && existing != rec.ID {
		w.logger.Debug("telemetry session superseded",
			slog.String("user_id", rec.UserID), slog.String("existing", existing))
		return nil
	}
	return w.repo.InsertSession(ctx, rec)
}

// HandleAction writes a tracked action row.
func (w *TelemetryWriter) HandleAction(ctx context.Context, t *asynq.Task) error {
	if w == nil || w.repo == nil {
		return errors.New("telemetry writer: not configured")
	}
	var rec audit.ActionRecord
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return asynq.SkipRetry
	}
	return w.repo.InsertAction(ctx, rec)
}
