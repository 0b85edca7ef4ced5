package sleeper

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when Sleeper answers with an empty body for a lookup.
	ErrNotFound = errors.New("sleeper: not found")

	// ErrNoLeagues is returned when a user has no leagues for the requested season.
	ErrNoLeagues = errors.New("sleeper: no leagues found")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sleeper: GET %s: status %d", e.Path, e.StatusCode)
}

// Is lets 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
