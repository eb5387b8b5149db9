package admin

import (
	"context"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/tasklist/internal/models"
)

// Recorder persists audit events for administrative mutations.
type Recorder interface {
	Record(ctx context.Context, event models.AuditEvent) error
}

// LogRecorder writes audit events to a zap logger. It is used when no
// document store is configured.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, event models.AuditEvent) error {
	r.logger.Info("audit",
		zap.Int64("actor_id", event.ActorID),
		zap.String("action", event.Action),
		zap.String("target_type", event.TargetType),
		zap.Int64("target_id", event.TargetID),
		zap.Any("changes", event.Changes),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
