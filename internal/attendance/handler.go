package attendance

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

// maxProofUploadBytes caps one submission's multipart body.
const maxProofUploadBytes = 10 << 20

// Handler manages attendance endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Post("/{id}/validate", h.validate)
	r.Get("/event/{eventID}", h.listForEvent)
	r.Get("/event/{eventID}/export", h.exportCSV)
}

type validateRequest struct {
	Status          string `json:"status" validate:"required,oneof=present absent excused rejected"`
	RejectionReason string `json:"rejection_reason"`
}

type attendanceResponse struct {
	ID              int64     `json:"id"`
	EventID         int64     `json:"event_id"`
	UserID          int64     `json:"user_id"`
	Status          string    `json:"status"`
	ProofRefs       []string  `json:"proof_refs,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ValidatedAt     time.Time `json:"validated_at,omitzero"`
	ValidatedByID   int64     `json:"validated_by_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type recordResponse struct {
	attendanceResponse
	UserName       string `json:"user_name"`
	DepartmentName string `json:"department_name,omitempty"`
	ValidatorName  string `json:"validator_name,omitempty"`
}

func toResponse(att Attendance) attendanceResponse {
	return attendanceResponse{
		ID:              att.ID,
		EventID:         att.EventID,
		UserID:          att.UserID,
		Status:          string(att.Status),
		ProofRefs:       att.ProofRefs,
		Notes:           att.Notes,
		RejectionReason: att.RejectionReason,
		ValidatedAt:     att.ValidatedAt,
		ValidatedByID:   att.ValidatedByID,
		CreatedAt:       att.CreatedAt,
		UpdatedAt:       att.UpdatedAt,
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		attendanceResponse: toResponse(rec.Attendance),
		UserName:           rec.UserName,
		DepartmentName:     rec.DepartmentName,
		ValidatorName:      rec.ValidatorName,
	}
}

// submit accepts a multipart form: event_id, status, notes, and zero or more
// proof file parts.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if err := r.ParseMultipartForm(maxProofUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed multipart body")
		return
	}
	eventID, err := strconv.ParseInt(r.FormValue("event_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event_id")
		return
	}
	input := SubmitInput{
		EventID: eventID,
		Status:  Status(r.FormValue("status")),
		Notes:   r.FormValue("notes"),
	}
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["proofs"] {
			file, err := header.Open()
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unreadable proof upload")
				return
			}
			defer file.Close()
			input.Proofs = append(input.Proofs, ProofFile{Name: header.Filename, Content: file})
		}
	}

	att, err := h.service.Submit(r.Context(), actor, input)
	if err != nil {
		h.logger.Warn("submit attendance", slog.Int64("event_id", eventID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(att))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid attendance id")
		return
	}
	var req validateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	att, err := h.service.Validate(r.Context(), actor, id, Status(req.Status), req.RejectionReason)
	if err != nil {
		h.logger.Warn("validate attendance", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(att))
}

func (h *Handler) listForEvent(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	summary, err := h.service.ListForEvent(r.Context(), actor, eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	records := make([]recordResponse, 0, len(summary.Records))
	for _, rec := range summary.Records {
		records = append(records, toRecordResponse(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"event_id":    summary.Event.ID,
		"event_title": summary.Event.Title,
		"records":     records,
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid event id")
		return
	}
	records, err := h.service.ListValidated(r.Context(), actor, eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvFilename(eventID)+`"`)
	if err := WriteCSV(w, records); err != nil {
		h.logger.Error("export attendance csv", slog.Int64("event_id", eventID), slog.Any("error", err))
	}
}
