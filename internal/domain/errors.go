package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler layer agnostic of
// which component produced the failure.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

// UpstreamError represents a non-success response from an external provider
// (the Exa answer API, Mapbox geocoding, or the landmark cache). It carries
// the HTTP status and a truncated response body for logging. An UpstreamError
// fails only the search branch that produced it, never the whole search.
type UpstreamError struct {
	Provider string // "exa", "mapbox", "cache"
	Status   int
	Body     string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed (status %d): %s", e.Provider, e.Status, e.Body)
}

// StatusCode implements the HTTPError interface
func (e *UpstreamError) StatusCode() int {
	return http.StatusBadGateway
}

// Is allows errors.Is() to match against ErrUnavailable
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUnavailable
}
