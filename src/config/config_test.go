package config

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.LLM.Provider != "openrouter" {
		t.Errorf("Expected provider openrouter, got %s", config.LLM.Provider)
	}
	if config.Agent.MaxClarifications != 3 {
		t.Errorf("Expected max_clarifications 3, got %d", config.Agent.MaxClarifications)
	}
	if config.Session.TTL.Std() != 24*time.Hour {
		t.Errorf("Expected session ttl 24h, got %s", config.Session.TTL.Std())
	}
	if got := *config.LLM.Nodes[NodeExecutor].Temperature; got != 0 {
		t.Errorf("Expected executor temperature 0, got %v", got)
	}
	if err := NewValidator().Validate(config); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "carrier-pigeon" }, true},
		{"invalid temperature", func(c *Config) { c.LLM.Temperature = 3.0 }, true},
		{"invalid node temperature", func(c *Config) { c.LLM.Nodes[NodePlanner] = NodeConfig{Temperature: temp(-1)} }, true},
		{"unknown node", func(c *Config) { c.LLM.Nodes["summarizer"] = NodeConfig{} }, true},
		{"unknown backend", func(c *Config) { c.Session.Backend = "postgres" }, true},
		{"redis without addr", func(c *Config) { c.Session.Backend = "redis" }, true},
		{"redis with addr", func(c *Config) { c.Session.Backend = "redis"; c.Session.RedisAddr = "localhost:6379" }, false},
		{"zero parallelism", func(c *Config) { c.Agent.ExecutorParallelism = 0 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := validator.Validate(c)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr ValidationError
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
		})
	}
}

func TestLoaderMergesFilesAndEnvironment(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/home/u/.config/genie/config.json", []byte(`{
		"llm": {"provider": "local", "base_url": "http://localhost:8081/v1", "model": "qwen2.5-1.5b-instruct"},
		"session": {"ttl": "2h"}
	}`), 0644)
	afero.WriteFile(fsys, "genie.json", []byte(`{"agent": {"max_subtasks": 3, "executor_parallelism": 2}}`), 0644)

	loader := NewLoaderFs(fsys, ConfigPrecedence{
		UserConfig:        "/home/u/.config/genie/config.json",
		ProjectConfig:     "genie.json",
		EnvironmentPrefix: "GENIE",
	}).WithEnv(envMap(map[string]string{
		"GENIE_SESSION_BACKEND":    "memory",
		"GENIE_MAX_CLARIFICATIONS": "5",
		"OPENROUTER_API_KEY":       "sk-or-test",
	}))

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.LLM.Provider != "local" || config.LLM.Model != "qwen2.5-1.5b-instruct" {
		t.Errorf("user file not applied: %+v", config.LLM)
	}
	if config.Session.TTL.Std() != 2*time.Hour {
		t.Errorf("Expected ttl 2h, got %s", config.Session.TTL.Std())
	}
	if config.Agent.MaxSubtasks != 3 || config.Agent.ExecutorParallelism != 2 {
		t.Errorf("project file not applied: %+v", config.Agent)
	}
	if config.Agent.CallTimeout.Std() != 30*time.Second {
		t.Errorf("unset keys should keep defaults, got %s", config.Agent.CallTimeout.Std())
	}
	if config.Session.Backend != "memory" {
		t.Errorf("Expected env backend override, got %s", config.Session.Backend)
	}
	if config.Agent.MaxClarifications != 5 {
		t.Errorf("Expected 5 clarifications, got %d", config.Agent.MaxClarifications)
	}
	if config.LLM.APIKey != "sk-or-test" {
		t.Errorf("Expected API key from OPENROUTER_API_KEY, got %q", config.LLM.APIKey)
	}
}

func TestLoaderMissingFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	config, err := NewLoaderFs(fsys, ConfigPrecedence{UserConfig: "/nope.json"}).WithEnv(noEnv).Load()
	if err != nil {
		t.Fatalf("missing optional file should not fail: %v", err)
	}
	if config.LLM.Provider != "openrouter" {
		t.Errorf("Expected defaults, got %s", config.LLM.Provider)
	}

	_, err = NewLoaderFs(fsys, ConfigPrecedence{ExplicitConfig: "/nope.json"}).WithEnv(noEnv).Load()
	if err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoaderRejectsBadInput(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "bad.json", []byte(`{"llm": `), 0644)
	if _, err := NewLoaderFs(fsys, ConfigPrecedence{ExplicitConfig: "bad.json"}).WithEnv(noEnv).Load(); err == nil {
		t.Error("Expected parse error")
	}

	loader := NewLoaderFs(fsys, ConfigPrecedence{EnvironmentPrefix: "GENIE"}).
		WithEnv(envMap(map[string]string{"GENIE_SESSION_TTL": "forever"}))
	if _, err := loader.Load(); err == nil {
		t.Error("Expected duration error")
	}
}

func TestSaveFileOmitsAPIKey(t *testing.T) {
	fsys := afero.NewMemMapFs()
	loader := NewLoaderFs(fsys, ConfigPrecedence{})
	config := DefaultConfig()
	config.LLM.APIKey = "secret"

	if err := loader.SaveFile(config, "/etc/genie/config.json"); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}
	data, err := afero.ReadFile(fsys, "/etc/genie/config.json")
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	llm := raw["llm"].(map[string]any)
	if _, ok := llm["api_key"]; ok {
		t.Error("api_key should not be written")
	}
	if llm["timeout"] != "1m0s" {
		t.Errorf("Expected duration string, got %v", llm["timeout"])
	}
	if config.LLM.APIKey != "secret" {
		t.Error("SaveFile must not mutate the caller's config")
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"90s"`), &d); err != nil || d.Std() != 90*time.Second {
		t.Errorf("string form: %v %s", err, d.Std())
	}
	if err := json.Unmarshal([]byte(`1000000000`), &d); err != nil || d.Std() != time.Second {
		t.Errorf("numeric form: %v %s", err, d.Std())
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Error("Expected error for bool")
	}
}
