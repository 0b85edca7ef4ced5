package orclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Common error variables
var (
	// ErrNoAPIKey indicates the API key is missing
	ErrNoAPIKey = errors.New("API key is required")

	// ErrEmptyResponse indicates the API returned no choices
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("operation timed out")

	// ErrRateLimited indicates rate limiting
	ErrRateLimited = errors.New("rate limited")
)

// ErrorResponse represents a standard error response from the API
// This matches the OpenRouter error format: {"error":{"message":"...","code":"..."}}
type ErrorResponse struct {
	Error struct {
		Message string         `json:"message"`
		Type    string         `json:"type"`
		Code    any            `json:"code,omitempty"`
		Param   string         `json:"param,omitempty"`
		Details map[string]any `json:"metadata,omitempty"`
	} `json:"error"`
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Code       string
	Param      string
	Details    map[string]any
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	switch e.Code {
	case "timeout", "connection_error", "server_error":
		return true
	}

	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == "invalid_api_key"
}

// Is lets errors.Is match rate limits against ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.IsRateLimit()
}

// TimeoutError represents a timeout error with context.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	Cause     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s timed out after %v: %v", e.Operation, e.Duration, e.Cause)
	}
	return fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is implements error matching.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// GetRetryDelay returns the appropriate retry delay for an error.
func GetRetryDelay(err error, attempt int) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimit() {
		switch v := apiErr.Details["retry_after"].(type) {
		case float64:
			return time.Duration(v) * time.Second
		case string:
			if secs, perr := strconv.Atoi(v); perr == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}

	if attempt < 1 {
		attempt = 1
	}
	// attempt 1: 1s, attempt 2: 2s, attempt 3: 4s, etc.
	delay := time.Second * time.Duration(1<<uint(attempt-1))
	maxDelay := time.Minute
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
