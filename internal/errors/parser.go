package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Postgres error classes this core cares about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// ErrorInfo is a classified error: a stable code plus a client-safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// IsUniqueViolation reports whether err is a storage-level unique constraint
// violation. Covers the translated GORM error, the raw Postgres error class
// and the SQLite message used by the test database.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique constraint failed")
}

// IsForeignKeyViolation reports whether err is a storage-level foreign key
// violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// IsCheckViolation reports whether err is a storage-level check constraint
// violation (e.g. quantity >= 0).
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgCheckViolation {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

// ParseStorageError classifies a repository error that was not already
// mapped to a service sentinel. Sensitive driver detail stays out of the
// client message.
func ParseStorageError(err error) ErrorInfo {
	switch {
	case err == nil:
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Code: ResourceNotFound, Message: "Resource not found"}
	case IsUniqueViolation(err):
		return ErrorInfo{Code: ResourceConflict, Message: "Resource already exists"}
	case IsForeignKeyViolation(err):
		return ErrorInfo{Code: ResourceConflict, Message: "Referenced resource does not exist"}
	case IsCheckViolation(err):
		return ErrorInfo{Code: ValidationInvalidRange, Message: "Value out of allowed range"}
	default:
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	}
}
