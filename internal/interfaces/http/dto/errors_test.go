package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeOptimisticLock, http.StatusConflict},
		{ErrCodeMissingReason, http.StatusBadRequest},
		{ErrCodeInvalidAmount, http.StatusBadRequest},
		{ErrCodeInvalidPatch, http.StatusBadRequest},
		{ErrCodeMissingPrice, http.StatusUnprocessableEntity},
		{ErrCodeAmountExceedsPrice, http.StatusUnprocessableEntity},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{"SOME_NEW_CODE", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "amount", Message: "must be positive"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
