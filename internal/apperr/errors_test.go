package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedClassification(t *testing.T) {
	err := fmt.Errorf("record payment: %w", Violation(ErrExceedsBalance))
	assert.True(t, IsViolation(err))
	assert.True(t, errors.Is(err, ErrExceedsBalance))
	assert.False(t, IsValidation(err))

	nf := fmt.Errorf("lookup: %w", &NotFoundError{Entity: "admission", Key: "SSC20250001", Err: ErrAdmissionNotFound})
	assert.True(t, IsNotFound(nf))
	assert.True(t, errors.Is(nf, ErrAdmissionNotFound))
	assert.Equal(t, "lookup: admission not found", nf.Error())

	assert.True(t, IsConflict(Conflict("mobile %s already registered", "9876543210")))
	assert.True(t, IsUnauthorized(fmt.Errorf("login: %w", Unauthorized("invalid credentials"))))
}

func TestValidationMessages(t *testing.T) {
	err := Invalid("amount", ErrInvalidAmount.Error())
	assert.True(t, IsValidation(err))
	assert.Equal(t, "amount must be greater than zero", err.Error())

	multi := &ValidationError{Fields: []FieldError{{"mobile", "must be 10 digits"}, {"course", "is required"}}}
	assert.Equal(t, "mobile: must be 10 digits; course: is required", multi.Error())
}

func TestNotFoundDefaultMessage(t *testing.T) {
	assert.Equal(t, "bill BILL20250101001 not found", NotFound("bill", "BILL20250101001").Error())
}
