package close

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gemilang-erp/gemilang-erp/internal/platform/httpx"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Handler wires period lifecycle endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers period routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/periods", h.listPeriods)
	r.Get("/periods/{period}", h.getPeriod)
	r.Get("/periods/{period}/snapshot", h.getSnapshot)
	r.Post("/periods/{period}/audit", h.runAudit)
	r.Post("/periods/{period}/close", h.closePeriod)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		h.respondError(w, r, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, periods)
}

func (h *Handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.GetPeriod(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.respondError(w, r, "get period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetSnapshot(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.respondError(w, r, "get snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *Handler) runAudit(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.RunAudit(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.respondError(w, r, "run audit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, run)
}

type closeRequest struct {
	AuditID int64 `json:"audit_id" validate:"required,gt=0"`
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	snapshot, err := h.service.ClosePeriod(r.Context(), chi.URLParam(r, "period"), req.AuditID, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, "close period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, ErrAuditNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err), errors.Is(err, ErrAuditPeriodMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPeriodAlreadyClosed), errors.Is(err, ErrAuditHasCritical):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
