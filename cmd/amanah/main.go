package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/amanah-org/amanah/internal/app"
	"github.com/amanah-org/amanah/internal/articles"
	"github.com/amanah-org/amanah/internal/attendance"
	"github.com/amanah-org/amanah/internal/auth"
	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/events"
	"github.com/amanah-org/amanah/internal/observability"
	"github.com/amanah-org/amanah/internal/platform/cache"
	"github.com/amanah-org/amanah/internal/platform/db"
	"github.com/amanah-org/amanah/internal/platform/storage"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/shared"
	"github.com/amanah-org/amanah/internal/users"
	"github.com/amanah-org/amanah/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	proofStore, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload storage", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(usersRepo, issuer, auth.NewRevocationStore(redisClient))
	authHandler := auth.NewHandler(logger, authService)

	departmentsRepo := departments.NewRepository(pool)
	departmentsService := departments.NewService(departmentsRepo)
	departmentsHandler := departments.NewHandler(logger, departmentsService)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, auditLogger)
	permissionsHandler := rbac.NewHandler(logger, rbacService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	eventsRepo := events.NewRepository(pool)
	eventsService := events.NewService(eventsRepo, rbacService, departmentsService, jobClient)
	eventsHandler := events.NewHandler(logger, eventsService)

	participation := events.NewParticipationStore(pool)
	eligibility := events.NewEligibility(participation, participation)

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(
		attendanceRepo,
		eventsService,
		eligibility,
		rbacService,
		usersRepo,
		departmentsService,
		proofStore,
		auditLogger,
	)
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	articlesRepo := articles.NewRepository(pool)
	articlesResolver := articles.NewResolver(articlesRepo, usersRepo)
	articlesService := articles.NewService(articlesRepo, articlesResolver, departmentsService, auditLogger)
	articlesHandler := articles.NewHandler(logger, articlesService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthService:        authService,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		DepartmentsHandler: departmentsHandler,
		EventsHandler:      eventsHandler,
		AttendanceHandler:  attendanceHandler,
		ArticlesHandler:    articlesHandler,
		PermissionsHandler: permissionsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
