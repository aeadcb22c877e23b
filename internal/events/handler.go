package events

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/amanah-org/amanah/internal/platform/httpx"
	"github.com/amanah-org/amanah/internal/shared"
)

// Handler manages event endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type eventRequest struct {
	Title                string    `json:"title" validate:"required"`
	Description          string    `json:"description"`
	EventType            string    `json:"event_type" validate:"required,oneof=internal public"`
	IsPaid               bool      `json:"is_paid"`
	Price                int64     `json:"price" validate:"min=0"`
	HasRegistration      bool      `json:"has_registration"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	StartsAt             time.Time `json:"starts_at" validate:"required"`
	Location             string    `json:"location"`
	AllowedDepartments   []int64   `json:"allowed_departments"`
}

type eventResponse struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	EventType            string    `json:"event_type"`
	IsPaid               bool      `json:"is_paid"`
	Price                int64     `json:"price,omitempty"`
	HasRegistration      bool      `json:"has_registration"`
	RegistrationDeadline time.Time `json:"registration_deadline,omitzero"`
	StartsAt             time.Time `json:"starts_at"`
	Location             string    `json:"location,omitempty"`
	AllowedDepartments   []int64   `json:"allowed_departments,omitempty"`
	CreatedByID          int64     `json:"created_by_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toResponse(event Event) eventResponse {
	return eventResponse{
		ID:                   event.ID,
		Title:                event.Title,
		Description:          event.Description,
		EventType:            string(event.EventType),
		IsPaid:               event.IsPaid,
		Price:                event.Price,
		HasRegistration:      event.HasRegistration,
		RegistrationDeadline: event.RegistrationDeadline,
		StartsAt:             event.StartsAt,
		Location:             event.Location,
		AllowedDepartments:   event.AllowedDepartments,
		CreatedByID:          event.CreatedByID,
		CreatedAt:            event.CreatedAt,
		UpdatedAt:            event.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(list))
	for _, event := range list {
		out = append(out, toResponse(event))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	event, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		h.logger.Warn("create event", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(event))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	event, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		h.logger.Warn("update event", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CreateInput, bool) {
	var req eventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return CreateInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return CreateInput{}, false
	}
	return CreateInput{
		Title:                req.Title,
		Description:          req.Description,
		EventType:            EventType(req.EventType),
		IsPaid:               req.IsPaid,
		Price:                req.Price,
		HasRegistration:      req.HasRegistration,
		RegistrationDeadline: req.RegistrationDeadline,
		StartsAt:             req.StartsAt,
		Location:             req.Location,
		AllowedDepartments:   req.AllowedDepartments,
	}, true
}
