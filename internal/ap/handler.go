package ap

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

// Handler wires AP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers AP routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bills", h.listBills)
	r.Post("/bills", h.createBill)
	r.Get("/bills/{id}", h.getBill)
	r.Post("/bills/{id}/void", h.voidBill)
	r.Get("/bills/{id}/payments", h.listPayments)
	r.Post("/payments", h.createPayment)
	r.Get("/payments/{id}", h.getPayment)
	r.Post("/payments/{id}/void", h.voidPayment)
}

type billLineRequest struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Description string  `json:"description"`
	Amount      int64   `json:"amount" validate:"required,gt=0"`
	ProjectCode *string `json:"project_code"`
}

type createBillRequest struct {
	VendorID          int64             `json:"vendor_id" validate:"required"`
	Date              string            `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate           string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	FakturPajakNumber string            `json:"faktur_pajak_number"`
	Description       string            `json:"description"`
	Lines             []billLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
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
	lines := make([]BillLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, BillLineInput{
			AccountCode: l.AccountCode,
			Description: l.Description,
			Amount:      l.Amount,
			ProjectCode: l.ProjectCode,
		})
	}
	bill, err := h.service.CreateBill(r.Context(), CreateBillInput{
		VendorID:          req.VendorID,
		Date:              date,
		DueDate:           dueDate,
		FakturPajakNumber: req.FakturPajakNumber,
		Description:       req.Description,
		CreatedBy:         shared.ActorFromContext(r.Context()),
		Lines:             lines,
	})
	if err != nil {
		h.respondError(w, r, "create bill", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	f := BillFilter{Status: BillStatus(r.URL.Query().Get("status")), Limit: 100}
	bills, err := h.service.ListBills(r.Context(), f)
	if err != nil {
		h.respondError(w, r, "list bills", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bills)
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid bill id")
		return
	}
	bill, err := h.service.GetBill(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) voidBill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid bill id")
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
	if err := h.service.VoidBill(r.Context(), VoidInput{
		ID:      id,
		ActorID: shared.ActorFromContext(r.Context()),
		Reason:  req.Reason,
	}); err != nil {
		h.respondError(w, r, "void bill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid bill id")
		return
	}
	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

type createPaymentRequest struct {
	BillID          string `json:"bill_id" validate:"required,uuid"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	BankAccountCode string `json:"bank_account_code" validate:"omitempty,len=7"`
	Note            string `json:"note"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	billID, _ := uuid.Parse(req.BillID)
	date, _ := time.Parse("2006-01-02", req.Date)
	payment, err := h.service.CreatePayment(r.Context(), CreatePaymentInput{
		BillID:          billID,
		Date:            date,
		Amount:          req.Amount,
		BankAccountCode: req.BankAccountCode,
		Note:            req.Note,
		CreatedBy:       shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, r, "create payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payment id")
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) voidPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payment id")
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
	if err := h.service.VoidPayment(r.Context(), VoidInput{
		ID:      id,
		ActorID: shared.ActorFromContext(r.Context()),
		Reason:  req.Reason,
	}); err != nil {
		h.respondError(w, r, "void payment", err)
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
		errors.Is(err, ErrBillVoid),
		errors.Is(err, ErrBillHasPayments),
		errors.Is(err, ErrPaymentVoid):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledger.ErrPeriodClosed), errors.Is(err, ledger.ErrAlreadyVoided):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
