package auth_api

import (
	"fmt"
	"net/http"

	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AuthService *auth.Service
	Logger      *logger.Logger
}

func NewHandler(authService *auth.Service, log *logger.Logger) *Handler {
	return &Handler{AuthService: authService, Logger: log}
}

// PublicRoutes mounts login only. New operators are added by a signed-in operator or, for the
// first one, by cmd/create-operator.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "register", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Register: email=%s", in.Email))

	op, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "register", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Operator registered", op)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, h.Logger, "login", err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), in)
	if err != nil {
		utils.WriteError(w, h.Logger, "login", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Login: operator %d", res.Operator.ID))
	utils.WriteSuccess(w, http.StatusOK, "Login successful", res)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context()); err != nil {
		utils.WriteError(w, h.Logger, "logout", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	op, err := h.AuthService.Me(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "get operator", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Operator", op)
}
