// Package server assembles the HTTP surface: public endpoints, operator auth and the protected
// back-office routes.
package server

import (
	"net/http"
	"time"

	"ms-backoffice/internal/admission/admission_api"
	"ms-backoffice/internal/auth"
	"ms-backoffice/internal/auth/auth_api"
	"ms-backoffice/internal/billing/billing_api"
	"ms-backoffice/internal/dashboard/dashboard_api"
	"ms-backoffice/internal/enquiry/enquiry_api"
	"ms-backoffice/internal/ledger/ledger_api"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/receipt/receipt_api"
	"ms-backoffice/internal/utils"
	"ms-backoffice/internal/words"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Auth      *auth_api.Handler
	Enquiry   *enquiry_api.Handler
	Admission *admission_api.Handler
	Ledger    *ledger_api.Handler
	Billing   *billing_api.Handler
	Receipt   *receipt_api.Handler
	Dashboard *dashboard_api.Handler
}

type Options struct {
	Tokens   *auth.Tokens
	DenyList auth.DenyList
	Logger   *logger.Logger
}

func NewRouter(h Handlers, opts Options) http.Handler {
	log := opts.Logger
	r := chi.NewRouter()
	r.Use(RequestLogger(log))

	authMW := auth.Middleware(opts.Tokens, opts.DenyList, log)

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/health", Health)
		r.Get("/words", AmountInWords(log))
		r.Route("/auth", func(r chi.Router) {
			h.Auth.PublicRoutes(r)
			r.With(authMW).Group(h.Auth.ProtectedRoutes)
		})
		log.Info("ROUTER", "Public routes registered: /api/health, /api/words, /api/auth/login")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			h.Enquiry.RegisterRoutes(r)
			h.Admission.RegisterRoutes(r)
			h.Ledger.RegisterRoutes(r)
			h.Billing.RegisterRoutes(r)
			h.Receipt.RegisterRoutes(r)
			h.Dashboard.RegisterRoutes(r)
		})
		log.Info("ROUTER", "Protected back-office routes registered under /api")
	})
	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "ok", map[string]string{"status": "up"})
}

// AmountInWords serves GET /api/words?amount=1500.50.
func AmountInWords(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount := r.URL.Query().Get("amount")
		text, err := words.FromString(amount)
		if err != nil {
			utils.WriteError(w, log, "amount in words", err)
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "Amount in words", map[string]string{"amount": amount, "words": text})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps the payment stream working behind the logger.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.LogAPI(r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
