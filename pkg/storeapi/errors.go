package storeapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidConfig is returned by NewClient for an unusable configuration
	ErrInvalidConfig = errors.New("invalid store API configuration")

	// ErrNetwork is returned when the API could not be reached
	ErrNetwork = errors.New("store API unreachable")

	// ErrUnauthorized is returned for 401 responses (bad credentials, expired token)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for 403 responses
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")

	// ErrRejected is returned for other 4xx responses (validation, business rules)
	ErrRejected = errors.New("request rejected")

	// ErrUpstream is returned for 5xx responses and unreadable bodies
	ErrUpstream = errors.New("store API error")
)

// ErrorResponse is the error body shape the API uses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError carries a non-2xx response. It unwraps to the sentinel matching its status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store API %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store API %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return ErrRejected
	default:
		return ErrUpstream
	}
}

// UserMessage returns the text the API meant for humans, if it sent one.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Code
	}
	return ""
}
