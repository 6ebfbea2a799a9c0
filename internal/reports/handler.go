package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gemilang-erp/gemilang-erp/internal/platform/httpx"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Handler wires the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/profit-loss", h.profitAndLoss)
	r.Get("/reports/balance-sheet", h.balanceSheet)
	r.Get("/reports/general-ledger", h.generalLedger)
	r.Get("/reports/ap-aging", h.apAging)
	r.Get("/reports/ar-aging", h.arAging)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	tb, err := h.service.TrialBalance(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.respondError(w, r, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewTrialBalanceView(tb))
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		from, to = q.Get("period"), q.Get("period")
	}
	if to == "" {
		to = from
	}
	if from == "" {
		from = to
	}
	pl, err := h.service.ProfitAndLossRange(r.Context(), from, to)
	if err != nil {
		h.respondError(w, r, "profit and loss", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewProfitAndLossView(pl))
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	bs, err := h.service.BalanceSheet(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.respondError(w, r, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewBalanceSheetView(bs))
}

func (h *Handler) generalLedger(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "account query parameter is required")
		return
	}
	gl, err := h.service.GeneralLedger(r.Context(), account, r.URL.Query().Get("period"))
	if err != nil {
		h.respondError(w, r, "general ledger", err)
		return
	}
	httpx.JSON(w, http.StatusOK, gl)
}

func (h *Handler) apAging(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	aging, err := h.service.APAging(r.Context(), asOf)
	if err != nil {
		h.respondError(w, r, "ap aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAgingView(aging))
}

func (h *Handler) arAging(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	aging, err := h.service.ARAging(r.Context(), asOf)
	if err != nil {
		h.respondError(w, r, "ar aging", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAgingView(aging))
}

func (h *Handler) parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be formatted YYYY-MM-DD")
		return time.Time{}, false
	}
	return asOf, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
