package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown    = "UNKNOWN"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
)

// Resource error codes
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeAlreadyExists  = "ALREADY_EXISTS"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeOptimisticLock = "OPTIMISTIC_LOCK_ERROR"
)

// Domain error codes surfaced by the payment and correction workflows
const (
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeInvalidPatch       = "INVALID_PATCH"
	ErrCodeMissingReason      = "MISSING_REASON"
	ErrCodeMissingPrice       = "MISSING_PRICE"
	ErrCodeAmountExceedsPrice = "AMOUNT_EXCEEDS_PRICE"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall back to 500, which keeps newly introduced
// domain codes visible instead of silently masked as client errors.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:    http.StatusInternalServerError,
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeOptimisticLock: http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeMissingPrice:       http.StatusUnprocessableEntity,
	ErrCodeAmountExceedsPrice: http.StatusUnprocessableEntity,

	// Malformed input -> 400 Bad Request
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidAmount: http.StatusBadRequest,
	ErrCodeInvalidPatch:  http.StatusBadRequest,
	ErrCodeMissingReason: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
