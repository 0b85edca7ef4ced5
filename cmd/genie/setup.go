package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/loxresearch/genie/src/app"
	"github.com/loxresearch/genie/src/config"
	"github.com/loxresearch/genie/src/theme"
)

// loadConfig loads the configuration from the standard locations and the
// --config file, then applies CLI flag overrides
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	overrideConfigFromCLI(cfg, cli)
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// overrideConfigFromCLI overrides configuration values with CLI flags
func overrideConfigFromCLI(cfg *config.Config, cli *CLI) {
	if cli.APIKey != "" {
		cfg.LLM.APIKey = cli.APIKey
	}
	if cli.BaseURL != "" {
		cfg.LLM.BaseURL = cli.BaseURL
	}
	if cli.Model != "" {
		cfg.LLM.Model = cli.Model
		// An explicit model applies to every node.
		for name, n := range cfg.LLM.Nodes {
			n.Model = ""
			cfg.LLM.Nodes[name] = n
		}
	}
	if cli.Backend != "" {
		cfg.Session.Backend = cli.Backend
	}
}

type appOptions struct {
	progress     bool
	sessionsOnly bool
	skipModel    bool
}

// newApp loads config and wires the application for a CLI command
func newApp(ctx context.Context, cli *CLI, opts appOptions) (*app.App, *slog.Logger, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, nil, err
	}

	logger := createCLILogger(cli.LogLevel, cli.NoColor)

	appOpts := app.Options{Logger: logger, SessionsOnly: opts.sessionsOnly, SkipModel: opts.skipModel}
	if opts.progress {
		appOpts.Processors = append(appOpts.Processors, theme.NewConsoleEventProcessor(os.Stderr, theme.ConsoleProcessorConfig{
			ShowNodes:     true,
			ShowToolCalls: true,
			ShowTimings:   parseLogLevel(cli.LogLevel) <= slog.LevelDebug,
			Color:         useColor(cli),
		}))
	}

	a, err := app.New(ctx, cfg, appOpts)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func useColor(cli *CLI) bool {
	return !cli.NoColor && isatty.IsTerminal(os.Stdout.Fd())
}

// maskAPIKey masks an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
