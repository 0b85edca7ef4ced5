// Package reddit searches subreddits through Reddit's public JSON listing API.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Reddit site.
const DefaultBaseURL = "https://www.reddit.com"

// DefaultUserAgent is sent on every request; Reddit rejects blank agents.
const DefaultUserAgent = "Mozilla/5.0"

// ErrSubredditNotAllowed is returned when a search targets a subreddit
// outside the configured allow list.
var ErrSubredditNotAllowed = errors.New("reddit: subreddit not allowed")

// DefaultSubreddits is the allow list used when none is configured.
var DefaultSubreddits = []string{"DynastyFF", "FantasyFootball", "fantasyfootball"}

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	UserAgent  string
	Subreddits []string
	// RequestsPerMinute bounds outbound requests. Zero disables limiting.
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client searches subreddits.
type Client struct {
	baseURL    string
	userAgent  string
	allowed    map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Post is the subset of a Reddit post surfaced to the agent.
type Post struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	Upvotes     int     `json:"upvotes"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	Comments    int     `json:"comments"`
	IsVideo     bool    `json:"is_video"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				URL         string  `json:"url"`
				Title       string  `json:"title"`
				Author      string  `json:"author"`
				Selftext    string  `json:"selftext"`
				Ups         int     `json:"ups"`
				UpvoteRatio float64 `json:"upvote_ratio"`
				NumComments int     `json:"num_comments"`
				IsVideo     bool    `json:"is_video"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewClient creates a Reddit client, filling in defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
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

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		allowed:    make(map[string]string, len(cfg.Subreddits)),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With("component", "reddit_client"),
	}
	for _, s := range cfg.Subreddits {
		c.allowed[strings.ToLower(s)] = s
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Subreddits returns the allow list.
func (c *Client) Subreddits() []string {
	out := make([]string, 0, len(c.allowed))
	for _, s := range c.allowed {
		out = append(out, s)
	}
	return out
}

// Search runs query against subreddit and returns up to limit posts.
func (c *Client) Search(ctx context.Context, subreddit, query string, limit int) ([]Post, error) {
	name, ok := c.allowed[strings.ToLower(strings.TrimPrefix(subreddit, "r/"))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSubredditNotAllowed, subreddit)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("reddit: query is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("reddit: rate limit wait: %w", err)
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "1")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, url.PathEscape(name), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: search r/%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit: search r/%s: status %d", name, resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("reddit: decode response: %w", err)
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		d := child.Data
		posts = append(posts, Post{
			ID:          d.ID,
			URL:         d.URL,
			Title:       d.Title,
			Author:      d.Author,
			Selftext:    d.Selftext,
			Upvotes:     d.Ups,
			UpvoteRatio: d.UpvoteRatio,
			Comments:    d.NumComments,
			IsVideo:     d.IsVideo,
		})
		if limit > 0 && len(posts) >= limit {
			break
		}
	}

	c.logger.Debug("reddit search", "subreddit", name, "query", query, "posts", len(posts))
	return posts, nil
}
