package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type stubSeeder struct {
	calls    []int64
	inserted int64
	err      error
}

func (s *stubSeeder) SeedPlaceholders(ctx context.Context, eventID int64) (int64, error) {
	s.calls = append(s.calls, eventID)
	return s.inserted, s.err
}

func TestAttendanceSeedHandler(t *testing.T) {
	seeder := &stubSeeder{inserted: 4}
	handler := NewAttendanceSeedHandler(slog.Default(), seeder, NewMetrics(prometheus.NewRegistry()))

	task, err := NewAttendanceSeedTask(AttendanceSeedPayload{EventID: 12})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{12}, seeder.calls)
}

func TestAttendanceSeedHandlerSkipsMalformedPayload(t *testing.T) {
	seeder := &stubSeeder{}
	handler := NewAttendanceSeedHandler(slog.Default(), seeder, NewMetrics(prometheus.NewRegistry()))

	err := handler(context.Background(), asynq.NewTask(TaskTypeAttendanceSeed, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, seeder.calls)
}

func TestAttendanceSeedHandlerPropagatesFailure(t *testing.T) {
	seeder := &stubSeeder{err: errors.New("db down")}
	handler := NewAttendanceSeedHandler(slog.Default(), seeder, NewMetrics(prometheus.NewRegistry()))

	task, err := NewAttendanceSeedTask(AttendanceSeedPayload{EventID: 12})
	require.NoError(t, err)
	require.Error(t, handler(context.Background(), task))
}
