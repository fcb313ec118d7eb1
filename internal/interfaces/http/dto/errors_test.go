package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeZoneNotFound, http.StatusNotFound},
		{ErrCodeAccountNotFound, http.StatusNotFound},
		{ErrCodeVoucherNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeInsufficientBalance, http.StatusUnprocessableEntity},
		{ErrCodeAllocationExceeded, http.StatusUnprocessableEntity},
		{ErrCodeVoucherExpired, http.StatusUnprocessableEntity},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeIssuanceFailed, http.StatusServiceUnavailable},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    error
		expected string
	}{
		{shared.ErrMissingFields, ErrCodeValidation},
		{shared.ErrZoneNotFound, ErrCodeZoneNotFound},
		{shared.ErrAccountNotFound, ErrCodeAccountNotFound},
		{shared.ErrVoucherNotFound, ErrCodeVoucherNotFound},
		{shared.ErrInsufficientFunds, ErrCodeInsufficientBalance},
		{shared.ErrAllocationExceeded, ErrCodeAllocationExceeded},
		{shared.ErrIssuanceFailed, ErrCodeIssuanceFailed},
		{shared.ErrVoucherExpired, ErrCodeVoucherExpired},
		{shared.ErrInvalidState, ErrCodeInvalidState},
		{shared.ErrConcurrencyConflict, ErrCodeConcurrencyConflict},
		{shared.ErrDuplicateRequest, ErrCodeDuplicateRequest},
		{shared.ErrAlreadyExists, ErrCodeAlreadyExists},
	}

	for _, tt := range tests {
		domainErr := tt.input.(*shared.DomainError)
		t.Run(domainErr.Code, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(domainErr.Code))
		})
	}

	t.Run("api codes pass through", func(t *testing.T) {
		assert.Equal(t, ErrCodeForbidden, NormalizeErrorCode(ErrCodeForbidden))
	})

	t.Run("unknown codes become internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, NormalizeErrorCode("SOMETHING_ELSE"))
	})
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "no HTTP status for %s (from %s)", apiCode, domainCode)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeZoneNotFound, "Zone not found", "req-1")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_ZONE_NOT_FOUND","message":"Zone not found","request_id":"req-1"}}`, string(raw))
}

func TestValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
		{Field: "amount", Message: "This field is required"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "amount", resp.Error.Details[0].Field)
}

func TestSuccessResponseOmitsError(t *testing.T) {
	raw, err := json.Marshal(NewSuccessResponse(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(raw))
}
