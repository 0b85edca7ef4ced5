package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"path" help:"Configuration file merged over the user and project config"`
	APIKey     string `env:"GENIE_API_KEY" help:"API key for the model endpoint"`
	BaseURL    string `help:"Custom API base URL"`
	Model      string `short:"m" help:"Model for every node"`
	Backend    string `help:"Session backend override (memory, sqlite, redis)"`
	LogLevel   string `help:"Log level (debug, info, warn, error)"`
	NoColor    bool   `env:"NO_COLOR" help:"Disable colored output"`

	Chat     ChatCmd    `cmd:"" default:"1" help:"Interactive chat with Lox Genie (default)"`
	Ask      AskCmd     `cmd:"" help:"Ask a single question"`
	Resume   ResumeCmd  `cmd:"" help:"Answer a pending clarification on a thread"`
	Threads  ThreadsCmd `cmd:"" help:"Inspect and manage stored threads"`
	Tools    ToolsCmd   `cmd:"" help:"List and run research tools"`
	Models   ModelsCmd  `cmd:"" help:"List models served by the configured endpoint"`
	Serve    ServeCmd   `cmd:"" help:"Serve the HTTP API"`
	Migrate  MigrateCmd `cmd:"" help:"Thread database migrations"`
	Settings ConfigCmd  `cmd:"" name:"config" help:"Show or write configuration"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("genie"),
		kong.Description("Lox Genie: a fantasy football research assistant"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run(&cli)
	stop()
	if err != nil {
		FatalError(createCLILogger(cli.LogLevel, cli.NoColor), err)
	}
}
