package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/config"
	"github.com/loxresearch/genie/src/genie"
	"github.com/loxresearch/genie/src/orclient"
	"github.com/loxresearch/genie/src/session"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0  // Success
	ExitError       = 1  // General error
	ExitUsage       = 2  // Usage error
	ExitConfig      = 3  // Configuration error
	ExitAuth        = 4  // Authentication error
	ExitNotFound    = 5  // Thread or tool not found
	ExitNetwork     = 6  // Network or store error
	ExitTimeout     = 7  // Timeout error
	ExitInterrupted = 8  // Interrupted by user
	ExitInternal    = 9  // Internal error
)

// errNotFound marks lookups of threads or tools that do not exist.
var errNotFound = errors.New("not found")

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Debug("Command failed", "error", err)

	exitCode := h.getExitCode(err)

	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())

	os.Exit(exitCode)
}

// getExitCode determines the appropriate exit code for an error
func (h *ErrorHandler) getExitCode(err error) int {
	var (
		configErr     config.ValidationError
		validationErr *genie.ValidationError
		storeErr      *session.StoreError
		apiErr        *orclient.APIError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, orclient.ErrTimeout):
		return ExitTimeout
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &validationErr):
		return ExitUsage
	case errors.Is(err, errNotFound), errors.Is(err, agent.ErrToolNotFound):
		return ExitNotFound
	case errors.As(err, &apiErr) && apiErr.IsAuthError():
		return ExitAuth
	case errors.As(err, &storeErr):
		return ExitNetwork
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "configuration"):
		return ExitConfig
	case strings.Contains(errStr, "API key"):
		return ExitAuth
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "connect to"):
		return ExitNetwork
	case strings.Contains(errStr, "invalid"):
		return ExitUsage
	default:
		return ExitError
	}
}

// FatalError logs a fatal error and exits
func FatalError(logger *slog.Logger, err error) {
	handler := NewErrorHandler(logger)
	handler.HandleError(err)
}
