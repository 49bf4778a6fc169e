// Package apperr holds the error taxonomy shared by every service: validation failures,
// conflicts on unique data, business rule violations and missing records. Handlers map
// them to HTTP statuses in one place (utils.WriteError).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrExceedsBalance    = errors.New("amount exceeds the remaining fee balance")
	ErrAdmissionNotFound = errors.New("admission not found")
	ErrAdmissionInactive = errors.New("admission is not active")
	ErrFeeBelowPaid      = errors.New("total fee cannot be less than the fee already paid")
)

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) error {
	return &ValidationError{Err: errors.New(msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Msg string
	Err error
}

func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string { return e.Msg }

func (e *ConflictError) Unwrap() error { return e.Err }

type BusinessRuleViolation struct {
	Err error
}

func Violation(err error) error {
	return &BusinessRuleViolation{Err: err}
}

func (e *BusinessRuleViolation) Error() string { return e.Err.Error() }

func (e *BusinessRuleViolation) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	Key    string
	Err    error
}

func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// UnauthorizedError covers missing or bad credentials and tokens.
type UnauthorizedError struct {
	Msg string
}

func Unauthorized(msg string) error {
	return &UnauthorizedError{Msg: msg}
}

func (e *UnauthorizedError) Error() string { return e.Msg }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsViolation(err error) bool {
	var target *BusinessRuleViolation
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}
