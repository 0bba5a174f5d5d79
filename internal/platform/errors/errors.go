// Package errors provides structured error handling with HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for logging and response formatting.
type ErrorType string

const (
	// TypeAuthentication indicates a bad bearer token or webhook signature (HTTP 401)
	TypeAuthentication ErrorType = "authentication"
	// TypeAuthorization indicates an authenticated caller lacking the required role (HTTP 403)
	TypeAuthorization ErrorType = "authorization"
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates resource not found (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeUpstreamAuth indicates a failed token exchange or refresh with Twitch (HTTP 502)
	TypeUpstreamAuth ErrorType = "upstream_auth"
	// TypeUpstreamAPI indicates a terminal non-2xx Twitch response or malformed payload (HTTP 502)
	TypeUpstreamAPI ErrorType = "upstream_api"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUpstreamAuth, TypeUpstreamAPI:
		return http.StatusBadGateway
	case TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AuthenticationError creates a new authentication error (HTTP 401).
func AuthenticationError(message string) *Error {
	return &Error{Type: TypeAuthentication, Message: message, Context: make(map[string]any)}
}

// AuthorizationError creates a new authorization error (HTTP 403).
func AuthorizationError(message string) *Error {
	return &Error{Type: TypeAuthorization, Message: message, Context: make(map[string]any)}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

// NotFoundError creates a new not-found error (HTTP 404).
func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message, Context: make(map[string]any)}
}

// UpstreamAuthError creates an error for failed token exchanges or refreshes (HTTP 502).
func UpstreamAuthError(message string, cause error) *Error {
	return &Error{Type: TypeUpstreamAuth, Message: message, Cause: cause, Context: make(map[string]any)}
}

// UpstreamAPIError creates an error for terminal Twitch API failures (HTTP 502).
func UpstreamAPIError(message string, cause error) *Error {
	return &Error{Type: TypeUpstreamAPI, Message: message, Cause: cause, Context: make(map[string]any)}
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
// Only the message is exposed; causes and context stay in the logs.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
