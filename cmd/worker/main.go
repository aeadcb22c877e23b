package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amanah-org/amanah/internal/app"
	"github.com/amanah-org/amanah/internal/attendance"
	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/events"
	"github.com/amanah-org/amanah/internal/platform/db"
	"github.com/amanah-org/amanah/internal/platform/storage"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
	"github.com/amanah-org/amanah/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	proofStore, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload storage", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)
	usersRepo := users.NewRepository(pool)
	departmentsService := departments.NewService(departments.NewRepository(pool))
	rbacService := rbac.NewService(rbac.NewRepository(pool), auditLogger)

	eventsRepo := events.NewRepository(pool)
	// The worker never creates events, so it needs no seeder of its own.
	eventsService := events.NewService(eventsRepo, rbacService, departmentsService, nil)

	participation := events.NewParticipationStore(pool)
	eligibility := events.NewEligibility(participation, participation)

	attendanceService := attendance.NewService(
		attendance.NewRepository(pool),
		eventsService,
		eligibility,
		rbacService,
		usersRepo,
		departmentsService,
		proofStore,
		auditLogger,
	)

	jobMetrics := jobs.NewMetrics(prometheus.DefaultRegisterer)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{
				Type:    jobs.TaskTypeAttendanceSeed,
				Handler: jobs.NewAttendanceSeedHandler(logger, attendanceService, jobMetrics),
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
