package partners

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gemilang-erp/gemilang-erp/internal/platform/httpx"
	"github.com/gemilang-erp/gemilang-erp/internal/shared"
)

// Handler wires counterparty master data endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers vendor and client routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/vendors", h.listVendors)
	r.Post("/vendors", h.createVendor)
	r.Get("/vendors/{id}", h.getVendor)
	r.Put("/vendors/{id}", h.updateVendor)
	r.Get("/clients", h.listClients)
	r.Post("/clients", h.createClient)
	r.Get("/clients/{id}", h.getClient)
	r.Put("/clients/{id}", h.updateClient)
}

type vendorRequest struct {
	Name                string  `json:"name" validate:"required"`
	NPWP                string  `json:"npwp"`
	ProvidesFakturPajak bool    `json:"provides_faktur_pajak"`
	SubjectToPPh23      bool    `json:"subject_to_pph23"`
	PPh23RatePercent    float64 `json:"pph23_rate" validate:"min=0,max=100"`
	PaymentTermsDays    int     `json:"payment_terms_days" validate:"min=0"`
}

func (r vendorRequest) toVendor(id int64) Vendor {
	return Vendor{
		ID:                  id,
		Name:                r.Name,
		NPWP:                r.NPWP,
		ProvidesFakturPajak: r.ProvidesFakturPajak,
		SubjectToPPh23:      r.SubjectToPPh23,
		PPh23RatePercent:    r.PPh23RatePercent,
		PaymentTermsDays:    r.PaymentTermsDays,
	}
}

func (h *Handler) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.service.ListVendors(r.Context())
	if err != nil {
		h.respondError(w, r, "list vendors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) getVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	vendor, err := h.service.GetVendor(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendor)
}

func (h *Handler) createVendor(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if !h.decode(w, r, &req) {
		return
	}
	vendor, err := h.service.CreateVendor(r.Context(), req.toVendor(0))
	if err != nil {
		h.respondError(w, r, "create vendor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vendor)
}

func (h *Handler) updateVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req vendorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.UpdateVendor(r.Context(), req.toVendor(id)); err != nil {
		h.respondError(w, r, "update vendor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clientRequest struct {
	Name             string `json:"name" validate:"required"`
	NPWP             string `json:"npwp"`
	WithholdsPPh23   bool   `json:"withholds_pph23"`
	PaymentTermsDays int    `json:"payment_terms_days" validate:"min=0"`
}

func (r clientRequest) toClient(id int64) Client {
	return Client{
		ID:               id,
		Name:             r.Name,
		NPWP:             r.NPWP,
		WithholdsPPh23:   r.WithholdsPPh23,
		PaymentTermsDays: r.PaymentTermsDays,
	}
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.respondError(w, r, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	client, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !h.decode(w, r, &req) {
		return
	}
	client, err := h.service.CreateClient(r.Context(), req.toClient(0))
	if err != nil {
		h.respondError(w, r, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.UpdateClient(r.Context(), req.toClient(id)); err != nil {
		h.respondError(w, r, "update client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsValidation(err):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
