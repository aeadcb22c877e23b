// Package jobs runs background work through Asynq: seeding attendance
// placeholders for internal events happens off the request path so event
// creation stays fast regardless of department size.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAttendanceSeed pre-creates pending attendance records for an
	// internal event.
	TaskTypeAttendanceSeed = "attendance:seed"
)

// AttendanceSeedPayload identifies the event to seed.
type AttendanceSeedPayload struct {
	EventID int64 `json:"event_id"`
}

// NewAttendanceSeedTask constructs an Asynq task.
func NewAttendanceSeedTask(payload AttendanceSeedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAttendanceSeed, data), nil
}
