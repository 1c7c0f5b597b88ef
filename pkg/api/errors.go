package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the api package.
var (
	// ErrNoBaseURL is returned when the client is created without a base URL.
	ErrNoBaseURL = errors.New("api base URL not configured")

	// ErrMissingField is returned when a required input field is empty.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidTenantName is returned when a tenant name is not URL safe.
	ErrInvalidTenantName = errors.New("tenant name must contain only lowercase letters, digits and hyphens")

	// ErrNoVideo is returned when an upload has no video payload.
	ErrNoVideo = errors.New("upload has no video")
)

// GenericFailureMessage is shown when the backend gives no usable message.
const GenericFailureMessage = "Request failed. Please try again."

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Unauthorized reports whether the backend rejected the credentials or token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// MessageOf returns the user-facing text for err: the backend message for an
// APIError, otherwise err.Error().
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// newAPIError builds an APIError from a failed response body. The backend
// reports problems as {"message": "..."}; some routes use "error".
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		msg = GenericFailureMessage
	}
	return &APIError{StatusCode: status, Message: msg}
}
