// Package errors provides the structured AppError type used by authkit for
// failures that fall outside the auth.Result envelope: malformed request
// bodies, storage outages reported by health checks, and panics recovered by
// the HTTP layer. It maps error codes to HTTP statuses and marks retryable
// conditions.
package errors
