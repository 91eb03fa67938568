package apierr

import (
	"fmt"
	"net/http"
)

// Code is a machine-readable error code suitable for programmatic branching.
type Code string

// Error codes. The set is closed; every handled error maps onto one of these.
const (
	CodeBadRequest           Code = "BAD_REQUEST"
	CodeValidationError      Code = "VALIDATION_ERROR"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeNotFound             Code = "NOT_FOUND"
	CodeConflict             Code = "CONFLICT"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodeInternalError        Code = "INTERNAL_ERROR"
	CodeDatabaseError        Code = "DATABASE_ERROR"
	CodeCacheError           Code = "CACHE_ERROR"
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
)

// codeStatus is the fixed Code -> HTTP status mapping. It never varies
// per request.
var codeStatus = map[Code]int{
	CodeBadRequest:           http.StatusBadRequest,
	CodeValidationError:      http.StatusBadRequest,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeNotFound:             http.StatusNotFound,
	CodeConflict:             http.StatusConflict,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeInternalError:        http.StatusInternalServerError,
	CodeDatabaseError:        http.StatusInternalServerError,
	CodeCacheError:           http.StatusInternalServerError,
	CodeExternalServiceError: http.StatusBadGateway,
	CodeServiceUnavailable:   http.StatusServiceUnavailable,
}

// StatusForCode returns the HTTP status for a code. Unknown codes map to 500.
func StatusForCode(code Code) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsKnownCode reports whether code is a member of the defined code set.
func IsKnownCode(code Code) bool {
	_, ok := codeStatus[code]
	return ok
}

// Error is a typed API error carrying a machine-readable code and an
// HTTP status. The status defaults from the fixed code table unless
// overridden at construction.
type Error struct {
	Message    string
	Code       Code
	StatusCode int
	Details    map[string]interface{}

	cause error
}

// New creates a new Error with the status taken from the code table.
func New(code Code, message string) *Error {
	return &Error{
		Message:    message,
		Code:       code,
		StatusCode: StatusForCode(code),
	}
}

// NewWithStatus creates a new Error with an explicit status override.
func NewWithStatus(code Code, message string, statusCode int) *Error {
	return &Error{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
	}
}

// WithDetails attaches structured details to the error.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithCause attaches the underlying error for logging and errors.Is/As.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Constructors for the common taxonomy members. Each fixes code and status.

// Validation creates a VALIDATION_ERROR (400).
func Validation(message string) *Error {
	if message == "" {
		message = "validation failed"
	}
	return New(CodeValidationError, message)
}

// BadRequest creates a BAD_REQUEST (400).
func BadRequest(message string) *Error {
	if message == "" {
		message = "bad request"
	}
	return New(CodeBadRequest, message)
}

// Unauthorized creates an UNAUTHORIZED (401).
func Unauthorized(message string) *Error {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message)
}

// Forbidden creates a FORBIDDEN (403).
func Forbidden(message string) *Error {
	if message == "" {
		message = "forbidden"
	}
	return New(CodeForbidden, message)
}

// NotFound creates a NOT_FOUND (404).
func NotFound(message string) *Error {
	if message == "" {
		message = "resource not found"
	}
	return New(CodeNotFound, message)
}

// Conflict creates a CONFLICT (409).
func Conflict(message string) *Error {
	if message == "" {
		message = "conflict"
	}
	return New(CodeConflict, message)
}

// RateLimited creates a RATE_LIMITED (429).
func RateLimited(message string) *Error {
	if message == "" {
		message = "too many requests"
	}
	return New(CodeRateLimited, message)
}

// Internal creates an INTERNAL_ERROR (500).
func Internal(message string) *Error {
	if message == "" {
		message = "internal server error"
	}
	return New(CodeInternalError, message)
}

// Database creates a DATABASE_ERROR (500).
func Database(message string) *Error {
	if message == "" {
		message = "database error"
	}
	return New(CodeDatabaseError, message)
}

// CacheFailure creates a CACHE_ERROR (500).
func CacheFailure(message string) *Error {
	if message == "" {
		message = "cache error"
	}
	return New(CodeCacheError, message)
}

// ExternalService creates an EXTERNAL_SERVICE_ERROR (502).
func ExternalService(message string) *Error {
	if message == "" {
		message = "external service error"
	}
	return New(CodeExternalServiceError, message)
}

// Unavailable creates a SERVICE_UNAVAILABLE (503).
func Unavailable(message string) *Error {
	if message == "" {
		message = "service unavailable"
	}
	return New(CodeServiceUnavailable, message)
}
