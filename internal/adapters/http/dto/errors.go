// Package dto holds the request and response shapes of the dataset API and
// the error envelope shared by every endpoint.
package dto

import (
	"maps"
	"net/http"
)

// Error codes of the envelope. Each code answers with exactly one status.
const (
	ErrorCodeBadRequest        = "BAD_REQUEST"
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeForbidden         = "FORBIDDEN"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeConflict          = "CONFLICT"
	ErrorCodeTooLarge          = "PAYLOAD_TOO_LARGE"
	ErrorCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeUnavailable       = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout           = "TIMEOUT"
)

var codeStatus = map[string]int{
	ErrorCodeBadRequest:        http.StatusBadRequest,
	ErrorCodeValidation:        http.StatusBadRequest,
	ErrorCodeForbidden:         http.StatusForbidden,
	ErrorCodeNotFound:          http.StatusNotFound,
	ErrorCodeConflict:          http.StatusConflict,
	ErrorCodeTooLarge:          http.StatusRequestEntityTooLarge,
	ErrorCodeUnsupportedFormat: http.StatusUnsupportedMediaType,
	ErrorCodeInternal:          http.StatusInternalServerError,
	ErrorCodeUnavailable:       http.StatusServiceUnavailable,
	ErrorCodeTimeout:           http.StatusGatewayTimeout,
}

// StatusOf returns the HTTP status of an error code. Unknown codes are a 500.
func StatusOf(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// ErrorResponse is the body of every failed request:
//
//	{"error":{"code":"NOT_FOUND","message":"dataset not found"},"traceId":"4bf92f35..."}
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail carries the code, a readable message, and optional context
// such as the offending field of a validation failure.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewErrorResponse creates an envelope without details.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// Status returns the HTTP status of the envelope's code.
func (e *ErrorResponse) Status() int {
	return StatusOf(e.Error.Code)
}

// With adds one detail entry.
func (e *ErrorResponse) With(key, value string) *ErrorResponse {
	if e.Error.Details == nil {
		e.Error.Details = make(map[string]string, 1)
	}

	e.Error.Details[key] = value

	return e
}

// WithDetails merges details into the envelope. Empty maps are ignored.
func (e *ErrorResponse) WithDetails(details map[string]string) *ErrorResponse {
	if len(details) == 0 {
		return e
	}

	if e.Error.Details == nil {
		e.Error.Details = make(map[string]string, len(details))
	}

	maps.Copy(e.Error.Details, details)

	return e
}

// WithTraceID sets the trace ID reported to the client.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}
