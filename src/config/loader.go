package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	fs         afero.Fs
	precedence ConfigPrecedence
	validator  *Validator
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a configuration loader reading from the OS filesystem
func NewLoader(precedence ConfigPrecedence) *Loader {
	return NewLoaderFs(afero.NewOsFs(), precedence)
}

// NewLoaderFs creates a loader over an arbitrary filesystem
func NewLoaderFs(fsys afero.Fs, precedence ConfigPrecedence) *Loader {
	return &Loader{
		fs:         fsys,
		precedence: precedence,
		validator:  NewValidator(),
		lookupEnv:  os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup, for tests
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path     string
		source   ConfigSource
		required bool
	}{
		{l.precedence.UserConfig, SourceUser, false},
		{l.precedence.ProjectConfig, SourceProject, false},
		{l.precedence.ExplicitConfig, SourceFile, true},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}

		err := l.mergeFile(config, src.path)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.ErrNotExist) && !src.required {
			continue
		}
		return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
	}

	if l.precedence.EnvironmentPrefix != "" {
		if err := l.applyEnvironmentOverrides(config); err != nil {
			return nil, err
		}
	}
	l.resolveAPIKey(config)

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// mergeFile decodes path over config. Keys absent from the file keep their
// current values.
func (l *Loader) mergeFile(config *Config, path string) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Never write a key that came from the environment.
	out := *config
	out.LLM.APIKey = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(l.fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	prefix := l.precedence.EnvironmentPrefix
	env := func(name string) (string, bool) {
		v, ok := l.lookupEnv(prefix + "_" + name)
		return v, ok && v != ""
	}

	overrides := map[string]*string{
		"API_KEY":           &config.LLM.APIKey,
		"PROVIDER":          &config.LLM.Provider,
		"BASE_URL":          &config.LLM.BaseURL,
		"MODEL":             &config.LLM.Model,
		"SESSION_BACKEND":   &config.Session.Backend,
		"SQLITE_PATH":       &config.Session.SQLitePath,
		"REDIS_ADDR":        &config.Session.RedisAddr,
		"REDIS_PASSWORD":    &config.Session.RedisPassword,
		"MONGO_URI":         &config.Tools.Players.MongoURI,
		"SERVER_ADDR":       &config.Server.Addr,
		"LOG_LEVEL":         &config.Logging.Level,
		"LOG_FORMAT":        &config.Logging.Format,
		"REDDIT_USER_AGENT": &config.Tools.Reddit.UserAgent,
	}
	for name, dst := range overrides {
		if v, ok := env(name); ok {
			*dst = v
		}
	}

	if v, ok := env("MAX_CLARIFICATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: prefix + "_MAX_CLARIFICATIONS", Message: "must be an integer", Value: v}
		}
		config.Agent.MaxClarifications = n
	}
	if v, ok := env("SESSION_TTL"); ok {
		var d Duration
		if err := d.UnmarshalJSON([]byte(strconv.Quote(v))); err != nil {
			return ValidationError{Field: prefix + "_SESSION_TTL", Message: "must be a duration such as 24h", Value: v}
		}
		config.Session.TTL = d
	}
	return nil
}

// resolveAPIKey reads the key from APIKeyEnvVar when none is configured
func (l *Loader) resolveAPIKey(config *Config) {
	if config.LLM.APIKey != "" || config.LLM.APIKeyEnvVar == "" {
		return
	}
	if v, ok := l.lookupEnv(config.LLM.APIKeyEnvVar); ok {
		config.LLM.APIKey = v
	}
}

// Load reads configuration from the standard locations plus an optional
// explicit file
func Load(explicitPath string) (*Config, error) {
	paths := GetConfigPaths()
	paths.ExplicitConfig = explicitPath
	return NewLoader(paths).Load()
}
