package errors

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// AppError is an error with a code, a client-safe message and the HTTP
// status it maps to. Cause is kept for logs and never serialized.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New creates an AppError. A zero httpStatus uses the code's usual status;
// retryability always follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	if httpStatus == 0 {
		httpStatus = StatusFor(code)
	}
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

// FromCode creates an AppError with the code's default message and status.
func FromCode(code ErrorCode) *AppError {
	return New(code, codes[code].message, 0)
}

// Wrap returns the first AppError in err's chain, or err as Internal.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// NotFound reports a missing resource. An empty id is left out of the details.
func NotFound(resource, id string) *AppError {
	err := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), 0).
		WithDetail("resource", resource)
	if id != "" {
		err.Details["id"] = id
	}
	return err
}

// AlreadyExists reports a uniqueness conflict on resource.
func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("A %s with these details already exists.", resource), 0).
		WithDetail("resource", resource)
}

// Validation reports invalid input with message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, 0)
}

// ValidationFields reports per-field validation failures. The message lists
// fields in sorted order; the map is kept under the "fields" detail.
func ValidationFields(fields map[string]string) *AppError {
	names := slices.Sorted(maps.Keys(fields))
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + fields[name]
	}
	return Validation("Validation failed: "+strings.Join(parts, "; ")).
		WithDetail("fields", maps.Clone(fields))
}

// Internal hides cause behind a generic 500.
func Internal(cause error) *AppError {
	return FromCode(ErrCodeInternal).WithCause(cause)
}

// DatabaseError reports a storage failure.
func DatabaseError(cause error) *AppError {
	return FromCode(ErrCodeDatabaseError).WithCause(cause)
}
