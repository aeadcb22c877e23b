package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/amanah-org/amanah/internal/articles"
	"github.com/amanah-org/amanah/internal/attendance"
	"github.com/amanah-org/amanah/internal/auth"
	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/events"
	"github.com/amanah-org/amanah/internal/observability"
	"github.com/amanah-org/amanah/internal/rbac"
	"github.com/amanah-org/amanah/internal/users"
	"github.com/amanah-org/amanah/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthService *auth.Service

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	DepartmentsHandler *departments.Handler
	EventsHandler      *events.Handler
	AttendanceHandler  *attendance.Handler
	ArticlesHandler    *articles.Handler
	PermissionsHandler *rbac.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything except login, health and
// metrics sits behind the bearer-token middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(params.AuthService))

		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/departments", params.DepartmentsHandler.MountRoutes)
		r.Route("/events", params.EventsHandler.MountRoutes)
		r.Route("/attendance", params.AttendanceHandler.MountRoutes)
		r.Route("/articles", params.ArticlesHandler.MountRoutes)
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
