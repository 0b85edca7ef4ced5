package llm

import (
	"errors"
	"fmt"
)

// Kind classifies why an inference call failed.
type Kind string

const (
	KindTransport Kind = "transport"
	KindTimeout   Kind = "timeout"
	KindEmpty     Kind = "empty"
	KindMalformed Kind = "malformed"
	KindSchema    Kind = "schema"
)

var (
	// ErrNoSchema is returned when a request carries no response schema.
	ErrNoSchema = errors.New("llm: response schema is required")

	// ErrNoJSON is returned when the model output contains no JSON object.
	ErrNoJSON = errors.New("llm: no JSON object in model output")
)

// Error is the typed failure returned by Invoke.
type Error struct {
	Node string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("llm %s: %s: %v", e.Node, e.Kind, e.Err)
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
