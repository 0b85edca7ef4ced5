// Package sleeper is a read-only client for the public Sleeper fantasy API.
package sleeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Sleeper v1 API.
const DefaultBaseURL = "https://api.sleeper.app/v1"

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	Season     int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the Sleeper API.
type Client struct {
	baseURL    string
	season     int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Sleeper client, filling in defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Season == 0 {
		cfg.Season = time.Now().Year()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		season:     cfg.Season,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With("component", "sleeper_client"),
	}
}

// Season returns the season used when a caller does not specify one.
func (c *Client) Season() int {
	return c.season
}

// get fetches path and decodes the JSON body into out. A literal null body
// is reported as ErrNotFound.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("sleeper: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sleeper: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("sleeper request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sleeper: read %s: %w", path, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return ErrNotFound
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("sleeper: decode %s: %w", path, err)
	}
	return nil
}
