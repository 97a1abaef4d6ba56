package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrDatabaseQuery      = errors.New("database query failed")
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrPersistence        = errors.New("write not acknowledged")
	ErrDatabaseTimeout    = errors.New("database timeout")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        label(ErrNotFound, entity+" not found"),
	}
}

// NewInvalidIDError is returned before any database work when an id cannot be in the store's format.
func NewInvalidIDError(entity, id string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        label(ErrInvalidID, "invalid "+entity+" id"),
		Details:    fmt.Sprintf("%q is not a valid identifier", truncate(id, 64)),
		Field:      "id",
	}
}

func NewConnectionError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseConnection,
		Details:    "Unable to connect to database",
		Cause:      cause,
	}
}

func NewPersistenceError(operation, entity string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrPersistence,
		Details:    fmt.Sprintf("Failed to %s %s", operation, entity),
		Cause:      cause,
	}
}

func NewDatabaseTimeoutError(operation string, timeout time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseTimeout,
		Details:    fmt.Sprintf("Database timeout during %s after %v", operation, timeout),
		Field:      "timeout",
	}
}

// NewDatabaseError creates a new database error with details about the operation
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	var apiErr *ApiErr
	if errors.As(cause, &apiErr) {
		return apiErr
	}

	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	if cause != nil && strings.Contains(cause.Error(), "connection") {
		return &ApiErr{
			StatusCode: http.StatusInternalServerError,
			err:        ErrDatabaseConnection,
			Details:    "Unable to connect to database",
			Cause:      cause,
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDatabaseQuery,
		Details:    details,
		Cause:      cause,
	}
}

func IsInvalidIDError(err error) bool {
	return errors.Is(err, ErrInvalidID)
}

func IsConnectionError(err error) bool {
	return errors.Is(err, ErrDatabaseConnection)
}

func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func IsDatabaseTimeoutError(err error) bool {
	return errors.Is(err, ErrDatabaseTimeout)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
