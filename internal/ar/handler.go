package ar

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gemilang-erp/gemilang-erp/internal/ledger"
	"github.com/gemilang-erp/gemilang-erp/internal/platform/httpx"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
	"github.com/gemilang-erp/gemilang-erp/internal/tax"
)

// Handler wires AR endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers AR routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.listInvoices)
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Post("/invoices/{id}/void", h.voidInvoice)
	r.Get("/invoices/{id}/receipts", h.listReceipts)
	r.Post("/receipts", h.createReceipt)
	r.Get("/receipts/{id}", h.getReceipt)
	r.Post("/receipts/{id}/void", h.voidReceipt)
}

type invoiceLineRequest struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Description string  `json:"description"`
	Amount      int64   `json:"amount" validate:"required,gt=0"`
	ProjectCode *string `json:"project_code"`
}

type createInvoiceRequest struct {
	ClientID    int64                `json:"client_id" validate:"required"`
	Date        string               `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate     string               `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Description string               `json:"description"`
	Lines       []invoiceLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	var dueDate time.Time
	if req.DueDate != "" {
		dueDate, _ = time.Parse("2006-01-02", req.DueDate)
	}
	lines := make([]InvoiceLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, InvoiceLineInput{
			AccountCode: l.AccountCode,
			Description: l.Description,
			Amount:      l.Amount,
			ProjectCode: l.ProjectCode,
		})
	}
	invoice, err := h.service.CreateInvoice(r.Context(), CreateInvoiceInput{
		ClientID:    req.ClientID,
		Date:        date,
		DueDate:     dueDate,
		Description: req.Description,
		CreatedBy:   shared.ActorFromContext(r.Context()),
		Lines:       lines,
	})
	if err != nil {
		h.respondError(w, r, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	f := InvoiceFilter{Status: InvoiceStatus(r.URL.Query().Get("status")), Limit: 100}
	invoices, err := h.service.ListInvoices(r.Context(), f)
	if err != nil {
		h.respondError(w, r, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) voidInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	var req voidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.VoidInvoice(r.Context(), VoidInput{
		ID:      id,
		ActorID: shared.ActorFromContext(r.Context()),
		Reason:  req.Reason,
	}); err != nil {
		h.respondError(w, r, "void invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	receipts, err := h.service.ListReceipts(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "list receipts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipts)
}

type createReceiptRequest struct {
	InvoiceID       string `json:"invoice_id" validate:"required,uuid"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	BankAccountCode string `json:"bank_account_code" validate:"omitempty,len=7"`
	Note            string `json:"note"`
}

func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoiceID, _ := uuid.Parse(req.InvoiceID)
	date, _ := time.Parse("2006-01-02", req.Date)
	receipt, err := h.service.CreateReceipt(r.Context(), CreateReceiptInput{
		InvoiceID:       invoiceID,
		Date:            date,
		Amount:          req.Amount,
		BankAccountCode: req.BankAccountCode,
		Note:            req.Note,
		CreatedBy:       shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, "create receipt", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receipt id")
		return
	}
	receipt, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get receipt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) voidReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid receipt id")
		return
	}
	var req voidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.VoidReceipt(r.Context(), VoidInput{
		ID:      id,
		ActorID: shared.ActorFromContext(r.Context()),
		Reason:  req.Reason,
	}); err != nil {
		h.respondError(w, r, "void receipt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ruleErr *tax.RuleError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &ruleErr):
		httpx.Problem(w, http.StatusUnprocessableEntity, ruleErr.Code, ruleErr.Detail)
	case errors.Is(err, ErrExceedsBalance),
		errors.Is(err, ErrInvoiceVoid),
		errors.Is(err, ErrInvoiceHasReceipts),
		errors.Is(err, ErrReceiptVoid):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledger.ErrPeriodClosed), errors.Is(err, ledger.ErrAlreadyVoided):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
