package billing_api

import (
	"fmt"
	"net/http"
	"time"

	"ms-backoffice/internal/billing"
	"ms-backoffice/internal/export"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/receipt"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BillingService *billing.Service
	Receipts       *receipt.Generator
	Logger         *logger.Logger
}

func NewHandler(svc *billing.Service, receipts *receipt.Generator, log *logger.Logger) *Handler {
	return &Handler{BillingService: svc, Receipts: receipts, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/bills", h.Create)
	r.Get("/bills", h.List)
	r.Get("/bills/export", h.Export)
	r.Get("/bills/{receiptNo}", h.Get)
	r.Delete("/bills/{receiptNo}", h.Delete)
	r.Get("/bills/{receiptNo}/pdf", h.PDF)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in billing.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "create bill", err)
		return
	}
	b, err := h.BillingService.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "create bill", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Bill created", b)
}

// filter reads ?date=YYYY-MM-DD (default today) and ?customer=.
func filter(r *http.Request) (models.BillFilter, error) {
	q := r.URL.Query()
	f := models.BillFilter{Customer: q.Get("customer")}
	if v := q.Get("date"); v != "" {
		d, err := utils.ParseDate("date", v)
		if err != nil {
			return f, err
		}
		f.Date = d
	}
	return f, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "list bills", err)
		return
	}
	bills, err := h.BillingService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "list bills", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Bills retrieved", bills)
}

// Export downloads the bills of one date as bills_DDMMYYYY.xlsx.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "export bills", err)
		return
	}
	if f.Date.IsZero() {
		f.Date = utils.CivilDate(time.Now(), h.BillingService.Location)
	}
	bills, err := h.BillingService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "export bills", err)
		return
	}
	book, err := export.Bills(bills)
	if err != nil {
		utils.WriteError(w, h.Logger, "export bills", err)
		return
	}
	if err := export.Write(w, fmt.Sprintf("bills_%s.xlsx", f.Date.Format("02012006")), book); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export bills: %v", err))
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.BillingService.Get(r.Context(), chi.URLParam(r, "receiptNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "get bill", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Bill retrieved", b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.BillingService.Delete(r.Context(), chi.URLParam(r, "receiptNo")); err != nil {
		utils.WriteError(w, h.Logger, "delete bill", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Bill deleted", nil)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	b, err := h.BillingService.Get(r.Context(), chi.URLParam(r, "receiptNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "bill pdf", err)
		return
	}
	doc, err := h.Receipts.Bill(b)
	if err != nil {
		utils.WriteError(w, h.Logger, "bill pdf", err)
		return
	}
	utils.WritePDF(w, b.ReceiptNo+".pdf", doc)
}
