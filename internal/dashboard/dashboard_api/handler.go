package dashboard_api

import (
	"net/http"

	"ms-backoffice/internal/dashboard"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler serves the dashboard summary
type Handler struct {
	Service *dashboard.Service
	Logger  *logger.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *dashboard.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the dashboard route on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.GetSummary)
}

// GetSummary returns today's counts and collections
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "dashboard", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Dashboard retrieved", summary)
}
