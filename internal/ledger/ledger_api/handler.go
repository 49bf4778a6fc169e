package ledger_api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/export"
	"ms-backoffice/internal/ledger"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/receipt"
	"ms-backoffice/internal/sse"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 200

type Handler struct {
	LedgerService *ledger.Service
	Receipts      *receipt.Generator
	Stream        *sse.Handler
	Location      *time.Location
	Logger        *logger.Logger
}

func NewHandler(svc *ledger.Service, receipts *receipt.Generator, stream *sse.Handler, loc *time.Location, log *logger.Logger) *Handler {
	return &Handler{LedgerService: svc, Receipts: receipts, Stream: stream, Location: loc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/admissions/{formNo}/payments", h.RecordPayment)
	r.Get("/admissions/{formNo}/payments", h.ListForAdmission)
	r.Get("/admissions/{formNo}/balance", h.Balance)

	r.Get("/payments", h.History)
	r.Get("/payments/export", h.Export)
	if h.Stream != nil {
		r.Get("/payments/stream", h.Stream.StreamPayments)
	}
	r.Get("/payments/{receiptNo}", h.GetReceipt)
	r.Get("/payments/{receiptNo}/pdf", h.ReceiptPDF)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	formNo := chi.URLParam(r, "formNo")
	var in ledger.PaymentInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "record payment", err)
		return
	}

	p, err := h.LedgerService.RecordPayment(r.Context(), formNo, in)
	if err != nil {
		utils.WriteError(w, h.Logger, "record payment", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Payment recorded", p)
}

func (h *Handler) ListForAdmission(w http.ResponseWriter, r *http.Request) {
	payments, err := h.LedgerService.PaymentsFor(r.Context(), chi.URLParam(r, "formNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "list payments", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Payments retrieved", payments)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.LedgerService.Balance(r.Context(), chi.URLParam(r, "formNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "balance", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Balance retrieved", bal)
}

// filter reads ?from=&to= (inclusive calendar dates in office time), ?search= and ?limit=.
func (h *Handler) filter(r *http.Request) (models.PaymentFilter, error) {
	q := r.URL.Query()
	f := models.PaymentFilter{Search: q.Get("search"), Limit: defaultHistoryLimit}

	if v := q.Get("from"); v != "" {
		d, err := utils.ParseDate("from", v)
		if err != nil {
			return f, err
		}
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, h.Location)
		f.From = &start
	}
	if v := q.Get("to"); v != "" {
		d, err := utils.ParseDate("to", v)
		if err != nil {
			return f, err
		}
		end := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, h.Location).AddDate(0, 0, 1)
		f.To = &end
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, apperr.Invalid("limit", "limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "payment history", err)
		return
	}
	payments, err := h.LedgerService.History(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "payment history", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Payments retrieved", payments)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "export payments", err)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		f.Limit = 0
	}
	payments, err := h.LedgerService.History(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "export payments", err)
		return
	}
	book, err := export.Payments(payments)
	if err != nil {
		utils.WriteError(w, h.Logger, "export payments", err)
		return
	}
	name := fmt.Sprintf("payments_%s.xlsx", time.Now().In(h.Location).Format("02012006"))
	if err := export.Write(w, name, book); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export payments: %v", err))
	}
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.LedgerService.GetReceipt(r.Context(), chi.URLParam(r, "receiptNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "get receipt", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Receipt retrieved", rec)
}

func (h *Handler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	rec, err := h.LedgerService.GetReceipt(r.Context(), chi.URLParam(r, "receiptNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "receipt pdf", err)
		return
	}
	doc, err := h.Receipts.PaymentReceipt(rec.Payment, rec.Admission)
	if err != nil {
		utils.WriteError(w, h.Logger, "receipt pdf", err)
		return
	}
	utils.WritePDF(w, rec.Payment.ReceiptNo+".pdf", doc)
}
