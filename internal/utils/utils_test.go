package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-backoffice/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Invalid("amount", "bad"), http.StatusBadRequest},
		{apperr.NotFound("admission", "x"), http.StatusNotFound},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.Unauthorized("invalid token"), http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", apperr.Violation(apperr.ErrExceedsBalance)), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, StatusFor(c.err), c.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, "create bill", errors.New("pq: connection refused"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", resp.Error)
	assert.False(t, resp.Success)
}

func TestWriteErrorIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, "create enquiry", apperr.Invalid("mobile_no", "must be 10 digits"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "mobile_no", resp.Fields[0].Field)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(req, &dst)
	assert.True(t, apperr.IsValidation(err))
}

func TestBounds(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) // 1 April 01:30 IST

	start, end := DayBounds(ts, loc)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, loc), end)

	mStart, mEnd := MonthBounds(ts, loc)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, loc), mStart)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, loc), mEnd)

	yStart, yEnd := YearBounds(ts, loc)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), yStart)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, loc), yEnd)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("bill_date", "2025-01-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("bill_date", "14/01/2025")
	assert.True(t, apperr.IsValidation(err))
}

func TestCivilDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2025, 1, 14, 19, 0, 0, 0, time.UTC) // 00:30 on the 15th in IST
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), CivilDate(late, loc))
}
