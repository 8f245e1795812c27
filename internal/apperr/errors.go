// Package apperr defines the error taxonomy shared across the service.
// Handlers map these to HTTP status codes; agents use them to decide
// which failures degrade and which propagate.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates a missing credential or invalid setting.
	// Fatal at startup for the backend that needs it.
	ErrConfiguration = errors.New("configuration error")

	// ErrModelLoad indicates a local embedding model failed to load.
	ErrModelLoad = errors.New("model load failed")

	// ErrIndexUnavailable indicates the vector index was never configured.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrValidation indicates malformed input; surfaced as a 400.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a missing entity; surfaced as a 404.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid credentials; surfaced as a 401.
	ErrUnauthorized = errors.New("not authorized")

	// ErrForbidden indicates the caller is authenticated but lacks permission;
	// surfaced as a 403.
	ErrForbidden = errors.New("forbidden")
)

// ProviderError is returned when a remote backend (embedding or generation)
// responds with a non-success status. It carries the response body so callers
// can log the upstream message.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: provider error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: provider error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// IsProvider reports whether err is a ProviderError.
func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
