package tools

// This file is the startup registration table for every tool the executor
// can call. Tools are constructed from explicit dependencies; nothing is
// discovered at runtime.

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	tool_playersearch "github.com/loxresearch/genie/src/genieagent/tools/tool_playersearch"
	tool_sleeperdrafts "github.com/loxresearch/genie/src/genieagent/tools/tool_sleeperdrafts"
	tool_sleeperleagues "github.com/loxresearch/genie/src/genieagent/tools/tool_sleeperleagues"
	tool_sleeperrosters "github.com/loxresearch/genie/src/genieagent/tools/tool_sleeperrosters"
	tool_sleepertrending "github.com/loxresearch/genie/src/genieagent/tools/tool_sleepertrending"
	tool_subredditsearch "github.com/loxresearch/genie/src/genieagent/tools/tool_subredditsearch"
	tool_weathersearch "github.com/loxresearch/genie/src/genieagent/tools/tool_weathersearch"
	tool_webfetch "github.com/loxresearch/genie/src/genieagent/tools/tool_webfetch"
	"github.com/loxresearch/genie/src/players"
	"github.com/loxresearch/genie/src/reddit"
	"github.com/loxresearch/genie/src/sleeper"
	"github.com/loxresearch/genie/src/weather"
)

// Tool name constants - re-exported from individual packages
const (
	SubredditSearchName = tool_subredditsearch.Name
	WeatherSearchName   = tool_weathersearch.Name
	SleeperLeaguesName  = tool_sleeperleagues.Name
	SleeperRostersName  = tool_sleeperrosters.Name
	SleeperDraftsName   = tool_sleeperdrafts.Name
	SleeperTrendingName = tool_sleepertrending.Name
	PlayerSearchName    = tool_playersearch.Name
	WebFetchName        = tool_webfetch.Name
)

// Deps are the clients tools are bound to. Nil clients leave their tools out.
type Deps struct {
	Reddit   *reddit.Client
	Weather  *weather.Client
	Sleeper  *sleeper.Client
	Players  *players.Searcher
	WebFetch *tool_webfetch.Options

	// CallTimeout bounds each tool call. Zero disables the bound.
	CallTimeout time.Duration
	Logger      *slog.Logger

	// Middleware is applied after logging, timeout and panic recovery.
	Middleware []agent.ToolMiddleware
}

// Registry builds the toolbox for deps.
func Registry(deps Deps) (*agent.Toolbox, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	toolsutil.SetLogger(logger.With("component", "tools"))

	var constructors []func() (agent.Tool, error)
	if deps.Reddit != nil {
		constructors = append(constructors, func() (agent.Tool, error) { return tool_subredditsearch.Tool(deps.Reddit) })
	}
	if deps.Weather != nil {
		constructors = append(constructors, func() (agent.Tool, error) { return tool_weathersearch.Tool(deps.Weather) })
	}
	if deps.Sleeper != nil {
		constructors = append(constructors,
			func() (agent.Tool, error) { return tool_sleeperleagues.Tool(deps.Sleeper) },
			func() (agent.Tool, error) { return tool_sleeperrosters.Tool(deps.Sleeper) },
			func() (agent.Tool, error) { return tool_sleeperdrafts.Tool(deps.Sleeper) },
			func() (agent.Tool, error) { return tool_sleepertrending.Tool(deps.Sleeper) },
		)
	}
	if deps.Players != nil {
		constructors = append(constructors, func() (agent.Tool, error) { return tool_playersearch.Tool(deps.Players) })
	}
	if deps.WebFetch != nil {
		constructors = append(constructors, func() (agent.Tool, error) { return tool_webfetch.Tool(*deps.WebFetch) })
	}

	tb := agent.NewToolbox()
	for _, build := range constructors {
		tool, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build tool: %w", err)
		}
		if err := tb.RegisterTool(tool); err != nil {
			return nil, err
		}
	}

	tb.RegisterMiddleware(agent.LoggingMiddleware(logger.With("component", "toolbox")))
	tb.RegisterMiddleware(agent.RecoverMiddleware())
	if deps.CallTimeout > 0 {
		tb.RegisterMiddleware(agent.TimeoutMiddleware(deps.CallTimeout))
	}
	for _, mw := range deps.Middleware {
		tb.RegisterMiddleware(mw)
	}
	return tb, nil
}

// DefaultDeps builds every HTTP-backed client with httpClient. Player search
// needs a database and is left for the caller.
func DefaultDeps(httpClient *http.Client, logger *slog.Logger) Deps {
	return Deps{
		Reddit:   reddit.NewClient(reddit.Config{HTTPClient: httpClient, Logger: logger}),
		Weather:  weather.NewClient(weather.Config{HTTPClient: httpClient, Logger: logger}),
		Sleeper:  sleeper.NewClient(sleeper.Config{HTTPClient: httpClient, Logger: logger}),
		WebFetch: &tool_webfetch.Options{HTTPClient: httpClient},
		Logger:   logger,
	}
}
