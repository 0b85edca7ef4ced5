// Package app wires the configured model endpoint, tools, agent graph,
// session store and metrics into a ready-to-use genie.Service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/config"
	"github.com/loxresearch/genie/src/genie"
	"github.com/loxresearch/genie/src/genieagent/tools"
	"github.com/loxresearch/genie/src/genieagent/tools/tool_webfetch"
	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/metrics"
	"github.com/loxresearch/genie/src/openaiclient"
	"github.com/loxresearch/genie/src/orclient"
	"github.com/loxresearch/genie/src/players"
	"github.com/loxresearch/genie/src/reddit"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/sleeper"
	"github.com/loxresearch/genie/src/weather"
)

const (
	eventBufferSize  = 256
	toolHTTPTimeout  = 30 * time.Second
	defaultLocalBase = "http://localhost:8081/v1"
)

// App represents the main application with all services
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Provider aisdk.Provider
	Tools    *agent.Toolbox
	Graph    *graph.Graph
	Sessions *session.Adapter
	Service  *genie.Service
	Metrics  *metrics.Metrics

	events  *graph.ChannelEventSink
	closers []func(context.Context) error
}

// Options adjusts how New wires the application.
type Options struct {
	Logger *slog.Logger
	// Processors receive graph events alongside metrics, e.g. a console
	// printer for the CLI.
	Processors []graph.EventProcessor
	// Store replaces the configured session backend.
	Store session.Store
	// SessionsOnly stops after the session store, for thread administration.
	SessionsOnly bool
	// SkipModel leaves Provider and Service nil, for tool listing.
	SkipModel bool
}

// New creates a new App instance with all services initialized
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	store := opts.Store
	if store == nil {
		store, err = OpenStore(ctx, cfg.Session)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	}
	a.Sessions = session.NewAdapter(store, cfg.Session.TTL.Std(), logger)
	if opts.SessionsOnly {
		return a, nil
	}

	a.Tools, err = a.buildTools(ctx)
	if err != nil {
		return nil, err
	}

	if opts.SkipModel {
		return a, nil
	}

	a.Provider, err = NewProvider(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	invoker, err := llm.New(llm.Config{
		Client:   a.Provider,
		Default:  modelSettings(cfg.LLM),
		Nodes:    nodeSettings(cfg.LLM),
		Timeout:  cfg.LLM.Timeout.Std(),
		Logger:   logger,
		JSONMode: cfg.LLM.JSONMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoker: %w", err)
	}

	processors := append([]graph.EventProcessor{a.Metrics}, opts.Processors...)
	a.events = graph.NewChannelEventSink(eventBufferSize, logger, processors...)

	a.Graph, err = graph.New(invoker, a.Tools, graph.Config{
		MaxClarifications: cfg.Agent.MaxClarifications,
		MaxSubtasks:       cfg.Agent.MaxSubtasks,
		Parallelism:       cfg.Agent.ExecutorParallelism,
		CallTimeout:       cfg.Agent.CallTimeout.Std(),
		Events:            a.events,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}

	a.Service = genie.NewService(a.Graph, a.Sessions,
		genie.WithObserver(a.Metrics),
		genie.WithLogger(logger),
	)
	return a, nil
}

// Close flushes pending events and releases stores and database clients.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
		a.events = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewProvider returns the chat client for cfg.Provider.
func NewProvider(cfg config.LLMConfig, logger *slog.Logger) (aisdk.Provider, error) {
	switch cfg.Provider {
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, errors.New("an API key is required for openrouter; set OPENROUTER_API_KEY or GENIE_API_KEY")
		}
		return orclient.NewClient(orclient.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Logger:     logger,
			Timeout:    cfg.Timeout.Std(),
			RetryCount: cfg.Retry.MaxRetries,
			RetryDelay: cfg.Retry.Delay.Std(),
			SiteURL:    "https://loxresearch.com",
			SiteName:   "Lox Genie",
		}), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("an API key is required for openai; set GENIE_API_KEY")
		}
		return openaiclient.NewFromConfig(cfg.APIKey, cfg.BaseURL, nil, logger)
	case "local":
		base := cfg.BaseURL
		if base == "" {
			base = defaultLocalBase
		}
		// llama.cpp ignores the key but go-openai always sends one.
		key := cfg.APIKey
		if key == "" {
			key = "local"
		}
		return openaiclient.NewFromConfig(key, base, &http.Client{Timeout: cfg.Timeout.Std()}, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// OpenStore opens the configured session backend.
func OpenStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = config.GetDefaultStoragePaths().DatabasePath
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
		store, err := session.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, nil
	case "redis":
		store, err := session.OpenRedis(ctx, session.RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func (a *App) buildTools(ctx context.Context) (*agent.Toolbox, error) {
	cfg := a.Config.Tools
	httpClient := &http.Client{Timeout: toolHTTPTimeout}
	deps := tools.Deps{
		CallTimeout: a.Config.Agent.CallTimeout.Std(),
		Logger:      a.Logger,
	}

	if cfg.Reddit.Enabled {
		deps.Reddit = reddit.NewClient(reddit.Config{
			BaseURL:           cfg.Reddit.BaseURL,
			UserAgent:         cfg.Reddit.UserAgent,
			Subreddits:        cfg.Reddit.Subreddits,
			RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
			HTTPClient:        httpClient,
			Logger:            a.Logger,
		})
	}
	if cfg.Weather.Enabled {
		deps.Weather = weather.NewClient(weather.Config{
			BaseURL:    cfg.Weather.BaseURL,
			UserAgent:  cfg.Weather.UserAgent,
			Periods:    cfg.Weather.Periods,
			HTTPClient: httpClient,
			Logger:     a.Logger,
		})
	}
	if cfg.Sleeper.Enabled {
		deps.Sleeper = sleeper.NewClient(sleeper.Config{
			BaseURL:    cfg.Sleeper.BaseURL,
			Season:     cfg.Sleeper.Season,
			HTTPClient: httpClient,
			Logger:     a.Logger,
		})
	}
	if cfg.WebFetch.Enabled {
		deps.WebFetch = &tool_webfetch.Options{
			HTTPClient: httpClient,
			UserAgent:  cfg.Reddit.UserAgent,
			MaxContent: cfg.WebFetch.MaxContent,
		}
	}
	if cfg.Players.MongoURI != "" {
		source, err := players.OpenMongo(ctx, players.MongoOptions{
			URI:        cfg.Players.MongoURI,
			Database:   cfg.Players.Database,
			Collection: cfg.Players.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to player database: %w", err)
		}
		a.closers = append(a.closers, source.Close)
		deps.Players = players.NewSearcher(source, cfg.Players.Threshold, a.Logger)
	}

	return tools.Registry(deps)
}

func modelSettings(cfg config.LLMConfig) llm.ModelSettings {
	temp := cfg.Temperature
	return llm.ModelSettings{
		Model:       cfg.Model,
		Temperature: &temp,
		MaxTokens:   cfg.MaxTokens,
	}
}

func nodeSettings(cfg config.LLMConfig) map[string]llm.ModelSettings {
	out := make(map[string]llm.ModelSettings, len(cfg.Nodes))
	for name, n := range cfg.Nodes {
		out[name] = llm.ModelSettings{
			Model:       n.Model,
			Temperature: n.Temperature,
			MaxTokens:   n.MaxTokens,
		}
	}
	return out
}
