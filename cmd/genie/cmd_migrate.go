package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/config"
	"github.com/loxresearch/genie/src/storage"
)

// MigrateCmd manages the sqlite thread database
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

func dbPathFor(cli *CLI, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := loadConfig(cli)
	if err != nil {
		return "", err
	}
	if cfg.Session.SQLitePath != "" {
		return cfg.Session.SQLitePath, nil
	}
	return config.GetDefaultStoragePaths().DatabasePath, nil
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	dbPath, err := dbPathFor(cli, c.DBPath)
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Database %s is up to date\n", dbPath)
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate status command
func (c *MigrateStatusCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	dbPath, err := dbPathFor(cli, c.DBPath)
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	applied, err := db.AppliedVersions()
	if err != nil {
		return err
	}
	migrations, err := storage.Migrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		mark := "pending"
		if applied[m.Version] {
			mark = "applied"
		}
		fmt.Printf("%-8s %s\n", mark, m.Name)
	}
	return nil
}
