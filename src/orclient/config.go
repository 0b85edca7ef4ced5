package orclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for an OpenAI-compatible chat endpoint such as
// OpenRouter or a local llama.cpp server.
type Config struct {
	APIKey     string        // Bearer token; optional for local servers
	BaseURL    string        // Base URL of the API, without the /chat/completions suffix
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Number of attempts for failed requests
	RetryDelay time.Duration // Delay between retries, multiplied by the attempt number
	SiteURL    string        // Site URL for OpenRouter ranking
	SiteName   string        // Site name for OpenRouter ranking
	ModelTTL   time.Duration // How long the model list is cached

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}
