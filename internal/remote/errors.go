package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a write targeted a row the store does not have.
	ErrNotFound = errors.New("row not found")
	// ErrUnauthorized reports a rejected or missing credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the table store, carrying the store's
// own error code and message when the body had one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote store: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("remote store: status %d", e.Status)
}

// Is maps HTTP statuses onto the package sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrUnauthorized:
		return e.Status == 401 || e.Status == 403
	}
	return false
}
