package receipt_api

import (
	"net/http"

	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/receipt"
	"ms-backoffice/internal/utils"
	"ms-backoffice/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Verifier *receipt.Verifier
	Logger   *logger.Logger
}

func NewHandler(v *receipt.Verifier, log *logger.Logger) *Handler {
	return &Handler{Verifier: v, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/receipts/verify", h.Verify)
}

type verifyRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "verify receipt", err)
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, h.Logger, "verify receipt", err)
		return
	}
	result, err := h.Verifier.Verify(r.Context(), req.Code)
	if err != nil {
		utils.WriteError(w, h.Logger, "verify receipt", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, result.Message, result)
}
