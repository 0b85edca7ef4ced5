package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when a call names an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParameters is returned when call parameters fail the tool's schema.
	ErrInvalidParameters = errors.New("invalid tool parameters")
)

// ToolError describes a failed tool invocation.
type ToolError struct {
	Tool    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Message, e.Err)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
