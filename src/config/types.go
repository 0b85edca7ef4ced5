package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the complete configuration for genie
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// LLM endpoint and per-node model settings
	LLM LLMConfig `json:"llm"`

	// Agent graph behaviour
	Agent AgentConfig `json:"agent"`

	// Session persistence
	Session SessionConfig `json:"session"`

	// External data sources behind the tools
	Tools ToolsConfig `json:"tools"`

	// HTTP server for `genie serve`
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// LLMConfig configures the inference endpoint
type LLMConfig struct {
	// Provider selects the client: openrouter, openai or local
	Provider string `json:"provider" validate:"provider"`

	// BaseURL overrides the provider's default endpoint
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey for authentication (can be omitted if using env vars)
	APIKey string `json:"api_key,omitempty"`

	// APIKeyEnvVar specifies the environment variable to read the API key from
	APIKeyEnvVar string `json:"api_key_env_var,omitempty"`

	// Timeout bounds a single inference call
	Timeout Duration `json:"timeout,omitempty" validate:"min=0"`

	// Retry configuration for transport failures
	Retry RetryConfig `json:"retry,omitempty"`

	// JSONMode requests json_object output instead of json_schema
	JSONMode bool `json:"json_mode,omitempty"`

	// Model is the default model for every node
	Model string `json:"model" validate:"required"`

	// Temperature is the default sampling temperature
	Temperature float64 `json:"temperature" validate:"min=0,max=2"`

	// MaxTokens caps each completion; zero leaves it to the server
	MaxTokens int `json:"max_tokens,omitempty" validate:"min=0"`

	// Nodes overrides model settings per graph node
	Nodes map[string]NodeConfig `json:"nodes,omitempty" validate:"dive"`
}

// NodeConfig overrides model settings for one graph node
type NodeConfig struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	MaxTokens   int      `json:"max_tokens,omitempty" validate:"min=0"`
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries int      `json:"max_retries" validate:"min=0,max=10"`
	Delay      Duration `json:"delay" validate:"min=0"`
}

// AgentConfig configures the agent graph
type AgentConfig struct {
	// MaxClarifications bounds consecutive clarification rounds; 0 is unbounded
	MaxClarifications int `json:"max_clarifications" validate:"min=0"`

	// MaxSubtasks caps the planner's output
	MaxSubtasks int `json:"max_subtasks" validate:"min=1,max=20"`

	// ExecutorParallelism is the number of subtasks run concurrently
	ExecutorParallelism int `json:"executor_parallelism" validate:"min=1,max=16"`

	// CallTimeout bounds each tool call
	CallTimeout Duration `json:"call_timeout" validate:"min=0"`
}

// SessionConfig configures thread persistence
type SessionConfig struct {
	// Backend is memory, sqlite or redis
	Backend string `json:"backend" validate:"store_backend"`

	// TTL applied to threads without their own
	TTL Duration `json:"ttl" validate:"min=0"`

	// KeyPrefix namespaces redis keys
	KeyPrefix string `json:"key_prefix,omitempty"`

	SQLitePath    string `json:"sqlite_path,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" validate:"min=0"`
}

// ToolsConfig configures the data sources tools call
type ToolsConfig struct {
	Sleeper  SleeperConfig  `json:"sleeper"`
	Reddit   RedditConfig   `json:"reddit"`
	Weather  WeatherConfig  `json:"weather"`
	Players  PlayersConfig  `json:"players"`
	WebFetch WebFetchConfig `json:"web_fetch"`
}

type SleeperConfig struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`
	// Season defaults tool queries; zero asks Sleeper for the current season
	Season int `json:"season,omitempty" validate:"min=0"`
}

type RedditConfig struct {
	Enabled           bool     `json:"enabled"`
	BaseURL           string   `json:"base_url,omitempty" validate:"omitempty,url"`
	UserAgent         string   `json:"user_agent,omitempty"`
	Subreddits        []string `json:"subreddits,omitempty"`
	RequestsPerMinute int      `json:"requests_per_minute" validate:"min=0"`
}

type WeatherConfig struct {
	Enabled   bool   `json:"enabled"`
	BaseURL   string `json:"base_url,omitempty" validate:"omitempty,url"`
	UserAgent string `json:"user_agent,omitempty"`
	Periods   int    `json:"periods,omitempty" validate:"min=0,max=14"`
}

// PlayersConfig points player search at a MongoDB collection; an empty URI
// disables the tool
type PlayersConfig struct {
	MongoURI   string `json:"mongo_uri,omitempty"`
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
	Threshold  int    `json:"threshold,omitempty" validate:"min=0,max=100"`
}

type WebFetchConfig struct {
	Enabled    bool `json:"enabled"`
	MaxContent int  `json:"max_content,omitempty" validate:"min=0"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `json:"addr" validate:"required"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" validate:"log_format"`
}

// Duration is a time.Duration that reads "30s"-style strings or nanosecond
// numbers from JSON and writes strings.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = Duration(x)
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// ValidationError describes a configuration value that failed validation
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceFile    ConfigSource = "file"
	SourceEnv     ConfigSource = "env"
)

// ConfigPrecedence lists the files merged over the defaults, lowest first
type ConfigPrecedence struct {
	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// ExplicitConfig is a path passed on the command line
	ExplicitConfig string

	// EnvironmentPrefix for environment variable overrides
	EnvironmentPrefix string
}
