package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"
)

// Environment names recognized by the response builder.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ResponseConfig controls envelope construction.
type ResponseConfig struct {
	// Environment selects development behavior (stack traces in the
	// envelope). Anything other than "development" is treated as
	// production.
	Environment string
}

// ErrorBody is the inner object of the wire envelope.
type ErrorBody struct {
	Message    string                 `json:"message"`
	Code       Code                   `json:"code"`
	StatusCode int                    `json:"statusCode"`
	RequestID  string                 `json:"requestId,omitempty"`
	Timestamp  string                 `json:"timestamp"`
	Path       string                 `json:"path,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Stack      string                 `json:"stack,omitempty"`
}

// Response is the wire contract for every handled error.
type Response struct {
	Error ErrorBody `json:"error"`
}

// Normalize converts any error into an *Error.
//
// An *Error passes through untouched. JSON syntax and type errors are
// treated as malformed client input. Everything else wraps as
// INTERNAL_ERROR with the original preserved as the cause.
func Normalize(err error) *Error {
	if err == nil {
		return Internal("")
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Validation("invalid request format").WithCause(err)
	}

	return Internal(err.Error()).WithCause(err)
}

// NormalizeValue converts a recovered panic value into an *Error. Error
// values go through Normalize; anything else wraps as INTERNAL_ERROR
// with the stringified value under details.originalError.
func NormalizeValue(v interface{}) *Error {
	if err, ok := v.(error); ok {
		return Normalize(err)
	}
	return Internal("internal server error").WithDetails(map[string]interface{}{
		"originalError": fmt.Sprintf("%v", v),
	})
}

// NewResponse builds the wire envelope for an error. The stack field is
// populated only in development mode.
func NewResponse(err error, requestID, path string, cfg ResponseConfig) *Response {
	apiErr := Normalize(err)

	body := ErrorBody{
		Message:    apiErr.Message,
		Code:       apiErr.Code,
		StatusCode: apiErr.StatusCode,
		RequestID:  requestID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       path,
		Details:    apiErr.Details,
	}

	if cfg.Environment == EnvDevelopment {
		body.Stack = string(debug.Stack())
	}

	return &Response{Error: body}
}

// Write serializes the envelope to w with the envelope's status code.
// It is the single place a handled error is written to the wire.
func (r *Response) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.Error.StatusCode)
	_ = json.NewEncoder(w).Encode(r)
}

// WriteError is a convenience for writing an error without a request
// context: normalize, build the envelope, write once.
func WriteError(w http.ResponseWriter, err error, cfg ResponseConfig) {
	NewResponse(err, "", "", cfg).Write(w)
}
