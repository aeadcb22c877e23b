package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amanah-org/amanah/internal/platform/httpx"
	"github.com/amanah-org/amanah/internal/shared"
)

// Handler wires event permission endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers grant management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{userID}", h.grant)
	r.Delete("/{userID}", h.revoke)
}

type grantRequest struct {
	CanValidate     bool `json:"can_validate"`
	CanManage       bool `json:"can_manage"`
	CanCreateEvents bool `json:"can_create_events"`
}

type grantResponse struct {
	UserID          int64 `json:"user_id"`
	CanValidate     bool  `json:"can_validate"`
	CanManage       bool  `json:"can_manage"`
	CanCreateEvents bool  `json:"can_create_events"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	perms, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, grantResponse{
			UserID:          p.UserID,
			CanValidate:     p.CanValidate,
			CanManage:       p.CanManage,
			CanCreateEvents: p.CanCreateEvents,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	perm := EventPermission{
		UserID:          userID,
		CanValidate:     req.CanValidate,
		CanManage:       req.CanManage,
		CanCreateEvents: req.CanCreateEvents,
	}
	if err := h.service.Grant(r.Context(), actor, perm); err != nil {
		h.logger.Warn("grant event permission", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantResponse{
		UserID:          userID,
		CanValidate:     perm.CanValidate,
		CanManage:       perm.CanManage,
		CanCreateEvents: perm.CanCreateEvents,
	})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	if err := h.service.Revoke(r.Context(), actor, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
