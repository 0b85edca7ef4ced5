package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/config"
)

// ConfigCmd shows and writes configuration
type ConfigCmd struct {
	Show  ConfigShowCmd  `cmd:"" help:"Print the effective configuration"`
	Paths ConfigPathsCmd `cmd:"" help:"Print the files configuration is read from"`
	Init  ConfigInitCmd  `cmd:"" help:"Write the default configuration to the user config file"`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	cfg.LLM.APIKey = maskAPIKey(cfg.LLM.APIKey)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

type ConfigPathsCmd struct{}

func (c *ConfigPathsCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	paths := config.GetConfigPaths()
	fmt.Printf("user:    %s\n", paths.UserConfig)
	fmt.Printf("project: %s\n", paths.ProjectConfig)
	if cli.ConfigFile != "" {
		fmt.Printf("file:    %s\n", cli.ConfigFile)
	}
	fmt.Printf("threads: %s\n", config.GetDefaultStoragePaths().DatabasePath)
	return nil
}

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Destination (defaults to the user config file)"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	paths := config.GetConfigPaths()
	dest := c.Path
	if dest == "" {
		dest = paths.UserConfig
	}
	if _, err := os.Stat(dest); err == nil && !c.Force {
		return fmt.Errorf("invalid destination: %s already exists (use --force)", dest)
	}
	if err := config.NewLoader(paths).SaveFile(config.DefaultConfig(), dest); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", dest)
	return nil
}
