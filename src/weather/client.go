// Package weather fetches game-day forecasts from the US National Weather Service.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the NWS API.
const DefaultBaseURL = "https://api.weather.gov"

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	UserAgent  string
	Periods    int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client resolves coordinates to a forecast.
type Client struct {
	baseURL    string
	userAgent  string
	periods    int
	httpClient *http.Client
	logger     *slog.Logger
}

// Period is one forecast window.
type Period struct {
	Name             string `json:"name"`
	StartTime        string `json:"start_time"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperature_unit"`
	WindSpeed        string `json:"wind_speed"`
	WindDirection    string `json:"wind_direction"`
	ShortForecast    string `json:"short_forecast"`
	DetailedForecast string `json:"detailed_forecast,omitempty"`
}

// Forecast is the location and its upcoming periods.
type Forecast struct {
	City    string   `json:"city,omitempty"`
	State   string   `json:"state,omitempty"`
	Periods []Period `json:"periods"`
}

type pointsResponse struct {
	Properties struct {
		Forecast         string `json:"forecast"`
		RelativeLocation struct {
			Properties struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			Name             string `json:"name"`
			StartTime        string `json:"startTime"`
			Temperature      int    `json:"temperature"`
			TemperatureUnit  string `json:"temperatureUnit"`
			WindSpeed        string `json:"windSpeed"`
			WindDirection    string `json:"windDirection"`
			ShortForecast    string `json:"shortForecast"`
			DetailedForecast string `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

// NewClient creates a weather client, filling in defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "lox-genie"
	}
	if cfg.Periods <= 0 {
		cfg.Periods = 4
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
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		periods:    cfg.Periods,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With("component", "weather_client"),
	}
}

// Forecast returns the upcoming forecast periods for a coordinate.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64) (*Forecast, error) {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("weather: coordinates out of range: %f,%f", latitude, longitude)
	}

	var points pointsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, latitude, longitude), &points); err != nil {
		return nil, err
	}
	if points.Properties.Forecast == "" {
		return nil, fmt.Errorf("weather: no forecast office for %f,%f", latitude, longitude)
	}

	var fc forecastResponse
	if err := c.getJSON(ctx, points.Properties.Forecast, &fc); err != nil {
		return nil, err
	}

	out := &Forecast{
		City:    points.Properties.RelativeLocation.Properties.City,
		State:   points.Properties.RelativeLocation.Properties.State,
		Periods: make([]Period, 0, c.periods),
	}
	for _, p := range fc.Properties.Periods {
		if len(out.Periods) >= c.periods {
			break
		}
		out.Periods = append(out.Periods, Period{
			Name:             p.Name,
			StartTime:        p.StartTime,
			Temperature:      p.Temperature,
			TemperatureUnit:  p.TemperatureUnit,
			WindSpeed:        p.WindSpeed,
			WindDirection:    p.WindDirection,
			ShortForecast:    p.ShortForecast,
			DetailedForecast: p.DetailedForecast,
		})
	}
	c.logger.Debug("weather forecast", "city", out.City, "periods", len(out.Periods))
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("weather: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather: GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("weather: decode response: %w", err)
	}
	return nil
}
