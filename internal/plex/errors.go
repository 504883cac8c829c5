package plex

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the server rejected the configured token.
var ErrUnauthorized = errors.New("plex: unauthorized, check the auth token")

// ErrNotFound indicates a lookup matched nothing on the server.
var ErrNotFound = errors.New("plex: not found")

// APIError describes a non-success response from the media server.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("plex %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("plex %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
