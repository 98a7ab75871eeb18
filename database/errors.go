package database

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/authkit/errors"
)

var (
	connectionPatterns = []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"connection closed",
		"driver: bad connection",
		"sql: database is closed",
	}
	contentionPatterns = []string{
		"deadlock",
		"lock timeout",
		"database is locked",
		"too many connections",
	}
	duplicatePatterns = []string{
		"unique constraint",
		"duplicate key",
	}
)

func matches(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsConnectionError reports a lost or unreachable database.
func IsConnectionError(err error) bool { return matches(err, connectionPatterns) }

// IsRetryableError reports errors worth retrying: connection loss and lock
// contention.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || matches(err, contentionPatterns)
}

// IsNotFoundError reports gorm.ErrRecordNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports a unique-constraint violation. Drivers without
// error translation are matched on their message.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || matches(err, duplicatePatterns)
}

// FromDatabase converts a storage error about resource to an AppError.
// Retryable failures become 503s.
func FromDatabase(err error, resource string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsDuplicateError(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsRetryableError(err):
		msg := fmt.Sprintf("Database operation on %s failed. Please try again.", resource)
		if IsConnectionError(err) {
			msg = "Database is temporarily unavailable. Please try again."
		}
		return apperrors.New(apperrors.ErrCodeDatabaseError, msg, http.StatusServiceUnavailable).WithCause(err)
	}
	return apperrors.DatabaseError(err)
}
