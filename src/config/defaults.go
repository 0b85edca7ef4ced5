package config

import (
	"time"
)

// Graph node names used as keys in LLMConfig.Nodes
const (
	NodeClassifier = "classifier"
	NodePlanner    = "planner"
	NodeExecutor   = "executor"
)

func temp(v float64) *float64 { return &v }

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		LLM: LLMConfig{
			Provider:     "openrouter",
			APIKeyEnvVar: "OPENROUTER_API_KEY",
			Timeout:      Duration(60 * time.Second),
			Retry: RetryConfig{
				MaxRetries: 3,
				Delay:      Duration(time.Second),
			},
			Model:       "qwen/qwen-2.5-7b-instruct",
			Temperature: 0.7,
			Nodes: map[string]NodeConfig{
				NodeClassifier: {Temperature: temp(0.7)},
				NodePlanner:    {Temperature: temp(0.3)},
				NodeExecutor:   {Temperature: temp(0.0)},
			},
		},

		Agent: AgentConfig{
			MaxClarifications:   3,
			MaxSubtasks:         5,
			ExecutorParallelism: 1,
			CallTimeout:         Duration(30 * time.Second),
		},

		Session: SessionConfig{
			Backend:    "sqlite",
			TTL:        Duration(24 * time.Hour),
			KeyPrefix:  "thread",
			SQLitePath: GetDefaultStoragePaths().DatabasePath,
		},

		Tools: ToolsConfig{
			Sleeper: SleeperConfig{Enabled: true},
			Reddit: RedditConfig{
				Enabled:           true,
				UserAgent:         "lox-genie/1.0",
				RequestsPerMinute: 30,
			},
			Weather: WeatherConfig{
				Enabled:   true,
				UserAgent: "lox-genie/1.0 (support@loxresearch.com)",
				Periods:   4,
			},
			Players: PlayersConfig{
				Database:   "genie",
				Collection: "players",
				Threshold:  60,
			},
			WebFetch: WebFetchConfig{Enabled: true, MaxContent: 20000},
		},

		Server: ServerConfig{Addr: ":8080"},

		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
