package enquiry_api

import (
	"fmt"
	"net/http"
	"time"

	"ms-backoffice/internal/enquiry"
	"ms-backoffice/internal/export"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EnquiryService *enquiry.Service
	Logger         *logger.Logger
}

func NewHandler(svc *enquiry.Service, log *logger.Logger) *Handler {
	return &Handler{EnquiryService: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/enquiries", h.Create)
	r.Get("/enquiries", h.List)
	r.Get("/enquiries/export", h.Export)
	r.Get("/enquiries/next-number", h.NextNumber)
	r.Get("/enquiries/{enquiryNo}", h.Get)
	r.Put("/enquiries/{enquiryNo}", h.Update)
	r.Delete("/enquiries/{enquiryNo}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in enquiry.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "create enquiry", err)
		return
	}
	e, err := h.EnquiryService.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "create enquiry", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Enquiry created", e)
}

// filter reads ?date=YYYY-MM-DD&course=&search=.
func filter(r *http.Request) (models.EnquiryFilter, error) {
	q := r.URL.Query()
	f := models.EnquiryFilter{Course: q.Get("course"), Search: q.Get("search")}
	if v := q.Get("date"); v != "" {
		d, err := utils.ParseDate("date", v)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}
	return f, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "list enquiries", err)
		return
	}
	enquiries, err := h.EnquiryService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "list enquiries", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Enquiries retrieved", enquiries)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "export enquiries", err)
		return
	}
	enquiries, err := h.EnquiryService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "export enquiries", err)
		return
	}
	book, err := export.Enquiries(enquiries)
	if err != nil {
		utils.WriteError(w, h.Logger, "export enquiries", err)
		return
	}
	name := fmt.Sprintf("enquiries_%s.xlsx", time.Now().In(h.EnquiryService.Location).Format("02012006"))
	if err := export.Write(w, name, book); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export enquiries: %v", err))
	}
}

func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	no, err := h.EnquiryService.NextNumber(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "next enquiry number", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Next enquiry number", map[string]string{"enquiry_no": no})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.EnquiryService.Get(r.Context(), chi.URLParam(r, "enquiryNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "get enquiry", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Enquiry retrieved", e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in enquiry.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "update enquiry", err)
		return
	}
	e, err := h.EnquiryService.Update(r.Context(), chi.URLParam(r, "enquiryNo"), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "update enquiry", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Enquiry updated", e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.EnquiryService.Delete(r.Context(), chi.URLParam(r, "enquiryNo")); err != nil {
		utils.WriteError(w, h.Logger, "delete enquiry", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Enquiry deleted", nil)
}
