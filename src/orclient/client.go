package orclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/loxresearch/genie/src/aisdk"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
)

var _ aisdk.Provider = (*Client)(nil)

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	modelCache *ModelCache
}

// NewClient creates a new API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.ModelTTL == 0 {
		config.ModelTTL = time.Hour
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "chat_client")

	client := &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
	client.modelCache = NewModelCache(client, config.ModelTTL)

	return client
}

// CreateChatCompletion sends a chat completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	logger := c.logger.With("method", "CreateChatCompletion", "model", req.Model)
	logger.Debug("sending chat completion request")

	body, err := json.Marshal(req)
	if err != nil {
		logger.Error("failed to marshal request", "error", err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequestWithRetry(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	var result aisdk.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	logger.Debug("chat completion successful", "usage_total", result.Usage.TotalTokens)
	return &result, nil
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	// Optional headers for ranking
	if c.config.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.config.SiteURL)
	}
	if c.config.SiteName != "" {
		req.Header.Set("X-Title", c.config.SiteName)
	}

	return req, nil
}

// doRequestWithRetry performs an HTTP request, retrying transport failures,
// rate limits and server errors. Any non-2xx final response is returned as an
// *APIError.
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var lastErr error

	logger := c.logger.With("method", "doRequestWithRetry", "path", path)

	for attempt := 1; attempt <= c.config.RetryCount; attempt++ {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, c.contextError(ctx, err)
			}
			lastErr = err
			logger.Debug("request attempt failed", "attempt", attempt, "error", err)
		case resp.StatusCode < 300:
			return resp, nil
		default:
			apiErr := c.handleError(resp)
			resp.Body.Close()
			if !IsRetryable(apiErr) {
				return nil, apiErr
			}
			lastErr = apiErr
			logger.Debug("retryable API error", "attempt", attempt, "status_code", resp.StatusCode)
		}

		if attempt == c.config.RetryCount {
			break
		}
		delay := c.config.RetryDelay * time.Duration(attempt)
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && apiErr.IsRateLimit() {
			delay = GetRetryDelay(lastErr, attempt)
		}
		select {
		case <-ctx.Done():
			return nil, c.contextError(ctx, lastErr)
		case <-time.After(delay):
		}
	}

	logger.Warn("request failed after all retries", "retry_count", c.config.RetryCount, "error", lastErr)
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryCount, lastErr)
}

func (c *Client) contextError(ctx context.Context, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Operation: "chat request", Duration: c.config.Timeout, Cause: cause}
	}
	return ctx.Err()
}

// handleError processes error responses from the API.
func (c *Client) handleError(resp *http.Response) *APIError {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read error response: %v", err),
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Type = errResp.Error.Type
		apiErr.Message = errResp.Error.Message
		apiErr.Param = errResp.Error.Param
		apiErr.Details = errResp.Error.Details
		if errResp.Error.Code != nil {
			apiErr.Code = fmt.Sprint(errResp.Error.Code)
		}
	}

	// Add retry-after information for rate limits
	if resp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if apiErr.Details == nil {
				apiErr.Details = make(map[string]any)
			}
			apiErr.Details["retry_after"] = retryAfter
		}
	}

	return apiErr
}
