// Package apierror defines the error envelope returned by the HTTP API.
package apierror

import (
	"encoding/json"
	"net/http"
)

// APIError is the standard error response body.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Common error codes.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodePayloadTooLarge  = "payload_too_large"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeTooManyRequests  = "too_many_requests"
	CodeInternal         = "internal_error"
	CodeUnavailable      = "service_unavailable"
)

// New creates a new APIError.
func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// WithDetails attaches structured details to the error.
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// BadRequest creates a 400 error.
func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// ValidationFailed creates a 400 error with field details.
func ValidationFailed(details any) *APIError {
	return New(http.StatusBadRequest, CodeValidationFailed, "validation failed").WithDetails(details)
}

// NotFound creates a 404 error.
func NotFound(message string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *APIError {
	return New(http.StatusConflict, CodeConflict, message)
}

// PayloadTooLarge creates a 413 error.
func PayloadTooLarge(message string) *APIError {
	return New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// UnsupportedMediaType creates a 415 error.
func UnsupportedMediaType(message string) *APIError {
	return New(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, message)
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *APIError {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, message)
}

// Internal creates a 500 error.
func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// Unavailable creates a 503 error.
func Unavailable(message string) *APIError {
	return New(http.StatusServiceUnavailable, CodeUnavailable, message)
}

// WriteJSON writes the error as a JSON response.
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
