package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// AttendanceSeeder is the part of the attendance service the worker needs.
type AttendanceSeeder interface {
	SeedPlaceholders(ctx context.Context, eventID int64) (int64, error)
}

// NewAttendanceSeedHandler processes TaskTypeAttendanceSeed tasks. The seed is
// idempotent, so the task is safe to retry after partial failure.
func NewAttendanceSeedHandler(logger *slog.Logger, seeder AttendanceSeeder, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AttendanceSeedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track("attendance_seed")
		inserted, err := seeder.SeedPlaceholders(ctx, payload.EventID)
		if err != nil {
			logger.Error("attendance seed", slog.Int64("event_id", payload.EventID), slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddSeeded(inserted)
		logger.Info("attendance seed done",
			slog.Int64("event_id", payload.EventID),
			slog.Int64("inserted", inserted))
		return tracker.End(nil)
	}
}
