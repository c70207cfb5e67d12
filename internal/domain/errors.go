package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode is the closed set of error kinds surfaced by the admin API.
// Every failure an endpoint reports maps to exactly one of these.
type ErrorCode string

const (
	// ErrMissingEnv means a required integration is not configured.
	ErrMissingEnv ErrorCode = "missing_env"
	// ErrTimeout means an upstream was slow or unresponsive.
	ErrTimeout ErrorCode = "timeout"
	// ErrAuthFailed means upstream credentials were rejected.
	ErrAuthFailed ErrorCode = "auth_failed"
	// ErrSQLError means the database rejected the request.
	ErrSQLError ErrorCode = "sql_error"
	// ErrHTTPError means an upstream HTTP service rejected the request.
	ErrHTTPError ErrorCode = "http_error"
	// ErrInvalidPayload means the caller sent a malformed or empty request.
	ErrInvalidPayload ErrorCode = "invalid_payload"
	// ErrNotFound means the addressed row does not exist.
	ErrNotFound ErrorCode = "not_found"
	// ErrSlugLocked means a slug rename was attempted on a published row.
	ErrSlugLocked ErrorCode = "slug_locked"
	// ErrCategoryNotFound means the referenced category does not exist.
	ErrCategoryNotFound ErrorCode = "category_not_found"
	// ErrNoPreviousBatch means replay was requested with no recorded batch.
	ErrNoPreviousBatch ErrorCode = "no_previous_batch"
	// ErrIndexMissing means the search service is reachable but the
	// configured index does not exist.
	ErrIndexMissing ErrorCode = "index_missing"
	// ErrUnreachable means the search service could not be reached.
	ErrUnreachable ErrorCode = "unreachable"
	// ErrUnknown is the uncategorized fallback.
	ErrUnknown ErrorCode = "unknown"
)

// HTTPStatus maps an error code to the HTTP status the API returns for it.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrInvalidPayload:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrNotFound, ErrCategoryNotFound, ErrNoPreviousBatch:
		return http.StatusNotFound
	case ErrSlugLocked:
		return http.StatusConflict
	case ErrMissingEnv:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// CodedError pairs an error code with a human-readable message.
type CodedError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCodedError creates a CodedError with a formatted message.
func NewCodedError(code ErrorCode, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FieldError reports a validation failure for a named payload field.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}
