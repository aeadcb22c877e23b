package departments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amanah-org/amanah/internal/platform/httpx"
)

// Handler serves organization structure endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers department routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	deps, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list departments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deps)
}
