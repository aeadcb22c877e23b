package articles

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

// Handler manages article endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers article routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/departments", h.authorizedDepartments)
	r.Put("/departments", h.replaceDepartments)
}

type articleRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type replaceDepartmentsRequest struct {
	DepartmentIDs []int64 `json:"department_ids"`
}

type articleResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    int64     `json:"author_id"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type departmentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toResponse(article Article) articleResponse {
	return articleResponse{
		ID:          article.ID,
		Title:       article.Title,
		Content:     article.Content,
		AuthorID:    article.AuthorID,
		PublishedAt: article.PublishedAt,
		CreatedAt:   article.CreatedAt,
		UpdatedAt:   article.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, meta, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list articles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]articleResponse, 0, len(list))
	for _, article := range list {
		out = append(out, toResponse(article))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"articles":    out,
		"page":        meta.Page,
		"per_page":    meta.PerPage,
		"total":       meta.Total,
		"total_pages": meta.TotalPages,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid article id")
		return
	}
	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(article))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	article, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		h.logger.Warn("create article", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(article))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid article id")
		return
	}
	input, ok := h.decode(w, r)
	if !ok {
		return
	}
	article, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		h.logger.Warn("update article", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(article))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid article id")
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorizedDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.service.AuthorizedDepartments(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]departmentResponse, 0, len(deps))
	for _, dep := range deps {
		out = append(out, departmentResponse{ID: dep.ID, Name: dep.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) replaceDepartments(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	var req replaceDepartmentsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	deps, err := h.service.ReplaceAuthorizedDepartments(r.Context(), actor, req.DepartmentIDs)
	if err != nil {
		h.logger.Warn("replace article departments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]departmentResponse, 0, len(deps))
	for _, dep := range deps {
		out = append(out, departmentResponse{ID: dep.ID, Name: dep.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CreateInput, bool) {
	var req articleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return CreateInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return CreateInput{}, false
	}
	return CreateInput{Title: req.Title, Content: req.Content}, true
}
