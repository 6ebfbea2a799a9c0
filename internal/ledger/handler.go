package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gemilang-erp/gemilang-erp/internal/platform/httpx"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Handler wires journal endpoints. Manual journals go through the same
// posting path as document-generated ones.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers journal routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.list)
	r.Post("/journals", h.post)
	r.Get("/journals/{id}", h.get)
	r.Post("/journals/{id}/reverse", h.reverse)
}

type journalLineRequest struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Debit       int64   `json:"debit" validate:"min=0"`
	Credit      int64   `json:"credit" validate:"min=0"`
	Description string  `json:"description"`
	ProjectCode *string `json:"project_code"`
}

type postJournalRequest struct {
	Date        string               `json:"date" validate:"required,datetime=2006-01-02"`
	Description string               `json:"description" validate:"required"`
	Lines       []journalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postJournalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	lines := make([]PostingLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, PostingLineInput{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			ProjectCode: l.ProjectCode,
		})
	}
	journal, err := h.service.Post(r.Context(), PostingInput{
		Date:          date,
		Description:   req.Description,
		SourceDocType: SourceManual,
		SourceDocID:   uuid.New(),
		PostedBy:      shared.ActorFromContext(r.Context()),
		Lines:         lines,
	})
	if err != nil {
		h.respondError(w, r, "post journal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, journal)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Period:        q.Get("period"),
		Status:        JournalStatus(q.Get("status")),
		SourceDocType: q.Get("source_doc_type"),
		Limit:         100,
	}
	if f.Period != "" && !shared.ValidPeriod(f.Period) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "period must be formatted YYYY-MM")
		return
	}
	journals, err := h.service.List(r.Context(), f)
	if err != nil {
		h.respondError(w, r, "list journals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, journals)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	journal, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, journal)
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid journal id")
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reversal, err := h.service.Reverse(r.Context(), ReverseInput{
		JournalID: id,
		ActorID:   shared.ActorFromContext(r.Context()),
		Reason:    req.Reason,
	})
	if err != nil {
		h.respondError(w, r, "reverse journal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrJournalNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err),
		errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrAccountInactive):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrPeriodClosed), errors.Is(err, ErrAlreadyVoided), errors.Is(err, ErrSourceAlreadyLinked):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
