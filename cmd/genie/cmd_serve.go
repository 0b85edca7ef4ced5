package main

import (
	"context"
	"time"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/app"
	"github.com/loxresearch/genie/src/server"
)

// ServeCmd runs the HTTP API
type ServeCmd struct {
	Addr          string        `help:"Listen address (overrides server.addr)"`
	CleanupEvery  time.Duration `default:"1h" help:"How often idle threads are purged; 0 disables"`
	CleanupMaxAge time.Duration `default:"168h" help:"Threads idle longer than this are purged"`
}

func (c *ServeCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	level := cli.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger := createServerLogger(level, cfg.Logging.Format, cli.NoColor)

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	addr := cfg.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	if c.CleanupEvery > 0 && c.CleanupMaxAge > 0 {
		go func() {
			ticker := time.NewTicker(c.CleanupEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := a.Sessions.Cleanup(ctx, c.CleanupMaxAge); err != nil {
						logger.Warn("thread cleanup failed", "error", err)
					}
				}
			}
		}()
	}

	srv := server.New(a.Service, server.Options{
		Metrics: a.Metrics.Handler(),
		Logger:  logger,
	})
	return srv.Run(ctx, addr)
}
