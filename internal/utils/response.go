package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/logger"
)

type APIResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Data      interface{}         `json:"data,omitempty"`
	Error     string              `json:"error,omitempty"`
	Fields    []apperr.FieldError `json:"fields,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, SuccessResponse(message, data))
}

// StatusFor maps the apperr taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsConflict(err):
		return http.StatusConflict
	case apperr.IsViolation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as an APIResponse. Unclassified errors are logged and hidden from the caller.
func WriteError(w http.ResponseWriter, log *logger.Logger, action string, err error) {
	status := StatusFor(err)
	resp := ErrorResponse(action+" failed", err.Error())
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("API", action+": "+err.Error())
		}
		resp.Error = "internal server error"
	}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("body", "invalid request body: "+err.Error())
	}
	return nil
}

// WritePDF sends doc inline so browsers open the print dialog directly.
func WritePDF(w http.ResponseWriter, filename string, doc []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
