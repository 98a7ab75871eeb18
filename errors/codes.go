package errors

import "net/http"

// ErrorCode is a machine-readable error code.
type ErrorCode string

const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
	message   string
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true, "The service is temporarily unavailable. Please try again."},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true, "The request took too long. Please try again."},
	ErrCodeNotFound:           {http.StatusNotFound, false, "The requested resource was not found."},
	ErrCodeAlreadyExists:      {http.StatusConflict, false, "The resource already exists."},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false, "The request is invalid."},
	ErrCodeUnauthorized:       {http.StatusUnauthorized, false, "Authentication required."},
	ErrCodeInternal:           {http.StatusInternalServerError, false, "An unexpected error occurred. Please try again or contact support."},
	ErrCodeDatabaseError:      {http.StatusInternalServerError, true, "A database error occurred. Please try again."},
}

// IsRetryableCode reports whether errors with code are worth retrying.
func IsRetryableCode(code ErrorCode) bool {
	return codes[code].retryable
}

// StatusFor returns the HTTP status conventionally sent for code, or 500
// for unknown codes.
func StatusFor(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
