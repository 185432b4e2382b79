package cineamo

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrMissingBaseURL indicates client construction without a base URL
	ErrMissingBaseURL = errors.New("cineamo base URL is required")
)

// APIError represents a non-2xx response from the Cineamo API
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("cineamo API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a missing resource
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsRateLimited checks if the error indicates request throttling
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError checks if the error indicates a server-side failure
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// DecodeError represents a response body that could not be read as a JSON
// object. It wraps the underlying cause so callers can inspect it.
type DecodeError struct {
	Err error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

// Unwrap returns the underlying decode failure
func (e *DecodeError) Unwrap() error {
	return e.Err
}
