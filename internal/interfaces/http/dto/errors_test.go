package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		// Unknown code should return 500
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
		input    string
		expected string
	}{
		// Domain codes should be normalized
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"BAD_REQUEST", ErrCodeBadRequest},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// Invoice aggregate codes map to input/state errors
		{"INVALID_CLIENT", ErrCodeInvalidInput},
		{"INVALID_NUMBER", ErrCodeInvalidInput},
		{"INVALID_DUE_DATE", ErrCodeInvalidInput},
		{"NOT_RECURRING", ErrCodeInvalidState},
		// Transport codes should pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes should pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorCodeConstants(t *testing.T) {
	// Ensure all error codes are in the HTTP status map
	allCodes := []string{
		ErrCodeUnknown,
		ErrCodeInternal,
		ErrCodeValidation,
		ErrCodeNotFound,
		ErrCodeAlreadyExists,
		ErrCodeConflict,
		ErrCodeInvalidState,
		ErrCodeBusinessRule,
		ErrCodeBadRequest,
		ErrCodeInvalidInput,
		ErrCodeInvalidJSON,
	}

	for _, code := range allCodes {
		t.Run(code, func(t *testing.T) {
			status, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "Error code %s should be in ErrorCodeHTTPStatus map", code)
			assert.Greater(t, status, 0, "Status code should be positive")
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "Resource not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	requestID := "req-123-456"
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", requestID)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Invoice not found", "req-test-123")

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded Response
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)

	assert.False(t, decoded.Success)
	assert.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "Invoice not found", decoded.Error.Message)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestNewSuccessResponse(t *testing.T) {
	data := map[string]string{"name": "test"}
	resp := NewSuccessResponse(data)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}
