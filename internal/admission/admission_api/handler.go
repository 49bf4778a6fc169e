package admission_api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-backoffice/internal/admission"
	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/export"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

// multipart overhead allowed on top of the photo limit
const formOverhead = 1 << 20

type Handler struct {
	AdmissionService *admission.Service
	Logger           *logger.Logger
}

func NewHandler(svc *admission.Service, log *logger.Logger) *Handler {
	return &Handler{AdmissionService: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/admissions", h.Create)
	r.Get("/admissions", h.List)
	r.Get("/admissions/export", h.Export)
	r.Get("/admissions/{formNo}", h.Get)
	r.Put("/admissions/{formNo}", h.Update)
	r.Delete("/admissions/{formNo}", h.Delete)
	r.Post("/admissions/{formNo}/deactivate", h.Deactivate)
	r.Post("/admissions/{formNo}/photo", h.UploadPhoto)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in admission.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "create admission", err)
		return
	}
	a, err := h.AdmissionService.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "create admission", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Admission created", a)
}

// filter reads ?batch=&course=&active=true|false&search=.
func filter(r *http.Request) (models.AdmissionFilter, error) {
	q := r.URL.Query()
	f := models.AdmissionFilter{Batch: q.Get("batch"), Course: q.Get("course"), Search: q.Get("search")}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Invalid("active", "active must be true or false")
		}
		f.Active = &active
	}
	return f, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "list admissions", err)
		return
	}
	admissions, err := h.AdmissionService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "list admissions", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admissions retrieved", admissions)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		utils.WriteError(w, h.Logger, "export admissions", err)
		return
	}
	admissions, err := h.AdmissionService.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, h.Logger, "export admissions", err)
		return
	}
	book, err := export.Admissions(admissions)
	if err != nil {
		utils.WriteError(w, h.Logger, "export admissions", err)
		return
	}
	name := fmt.Sprintf("admissions_%s.xlsx", time.Now().In(h.AdmissionService.Location).Format("02012006"))
	if err := export.Write(w, name, book); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Export admissions: %v", err))
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.AdmissionService.Get(r.Context(), chi.URLParam(r, "formNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "get admission", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admission retrieved", a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in admission.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "update admission", err)
		return
	}
	a, err := h.AdmissionService.Update(r.Context(), chi.URLParam(r, "formNo"), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "update admission", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admission updated", a)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	a, err := h.AdmissionService.Deactivate(r.Context(), chi.URLParam(r, "formNo"))
	if err != nil {
		utils.WriteError(w, h.Logger, "deactivate admission", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admission deactivated", a)
}

// UploadPhoto expects a multipart form with the image in the "photo" field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.AdmissionService.Photos.MaxBytes+formOverhead)
	file, _, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = apperr.Invalid("photo", "photo is too large")
		} else {
			err = apperr.Invalid("photo", "photo file is required")
		}
		utils.WriteError(w, h.Logger, "upload photo", err)
		return
	}
	defer file.Close()

	a, err := h.AdmissionService.UploadPhoto(r.Context(), chi.URLParam(r, "formNo"), file)
	if err != nil {
		utils.WriteError(w, h.Logger, "upload photo", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Photo uploaded", a)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.AdmissionService.Delete(r.Context(), chi.URLParam(r, "formNo")); err != nil {
		utils.WriteError(w, h.Logger, "delete admission", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admission deleted", nil)
}
