package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/app"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/theme"
)

// ThreadsCmd groups the thread administration commands
type ThreadsCmd struct {
	List    ThreadsListCmd    `cmd:"" help:"List thread ids"`
	Show    ThreadsShowCmd    `cmd:"" help:"Show a thread's conversation"`
	Delete  ThreadsDeleteCmd  `cmd:"" help:"Delete a thread"`
	TTL     ThreadsTTLCmd     `cmd:"" name:"ttl" help:"Show a thread's remaining lifetime"`
	Extend  ThreadsExtendCmd  `cmd:"" help:"Reset a thread's expiry"`
	Recent  ThreadsRecentCmd  `cmd:"" help:"Show the most recently updated threads"`
	Cleanup ThreadsCleanupCmd `cmd:"" help:"Delete threads idle for longer than --max-age"`
}

// openSessions wires only the session store
func openSessions(ctx context.Context, cli *CLI) (*app.App, error) {
	a, _, err := newApp(ctx, cli, appOptions{sessionsOnly: true})
	return a, err
}

type ThreadsListCmd struct {
	Pattern string `arg:"" optional:"" help:"Glob pattern over thread ids"`
}

func (c *ThreadsListCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ids, err := a.Sessions.List(ctx, c.Pattern)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type ThreadsShowCmd struct {
	Thread string `arg:"" help:"Thread id"`
	JSON   bool   `help:"Print the stored state as JSON"`
}

func (c *ThreadsShowCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	st, err := a.Sessions.Get(ctx, c.Thread)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("thread %s: %w", c.Thread, errNotFound)
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Print(theme.Transcript(st, useColor(cli)))
	return nil
}

type ThreadsDeleteCmd struct {
	Threads []string `arg:"" help:"Thread ids"`
}

func (c *ThreadsDeleteCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	for _, id := range c.Threads {
		ok, err := a.Sessions.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("thread %s: %w", id, errNotFound)
		}
		fmt.Printf("deleted %s\n", id)
	}
	return nil
}

type ThreadsTTLCmd struct {
	Thread string `arg:"" help:"Thread id"`
}

func (c *ThreadsTTLCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	exists, err := a.Sessions.Store().Exists(ctx, c.Thread)
	if err != nil {
		return &session.StoreError{Op: "exists", ThreadID: c.Thread, Err: err}
	}
	if !exists {
		return fmt.Errorf("thread %s: %w", c.Thread, errNotFound)
	}
	ttl, err := a.Sessions.TTL(ctx, c.Thread)
	if err != nil {
		return err
	}
	if ttl == session.NoExpiry {
		fmt.Println("no expiry")
		return nil
	}
	fmt.Println(ttl.Round(time.Second))
	return nil
}

type ThreadsExtendCmd struct {
	Thread string        `arg:"" help:"Thread id"`
	TTL    time.Duration `name:"ttl" default:"24h" help:"New lifetime from now"`
}

func (c *ThreadsExtendCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	if c.TTL <= 0 {
		return fmt.Errorf("invalid --ttl %s: must be positive", c.TTL)
	}
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ok, err := a.Sessions.Extend(ctx, c.Thread, c.TTL)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("thread %s: %w", c.Thread, errNotFound)
	}
	fmt.Printf("%s expires in %s\n", c.Thread, c.TTL)
	return nil
}

type ThreadsRecentCmd struct {
	Limit int `short:"n" default:"10" help:"Number of threads"`
}

func (c *ThreadsRecentCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	states, err := a.Sessions.Recent(ctx, c.Limit)
	if err != nil {
		return err
	}
	total, err := a.Sessions.Count(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THREAD\tSTATUS\tMESSAGES\tUPDATED")
	for _, s := range states {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ThreadID, s.Status, s.MessageCounts.Total, s.LastUpdated.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d threads\n", len(states), total)
	return nil
}

type ThreadsCleanupCmd struct {
	MaxAge time.Duration `default:"168h" help:"Delete threads not updated within this duration"`
}

func (c *ThreadsCleanupCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	if c.MaxAge <= 0 {
		return fmt.Errorf("invalid --max-age %s: must be positive", c.MaxAge)
	}
	a, err := openSessions(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	n, err := a.Sessions.Cleanup(ctx, c.MaxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d threads\n", n)
	return nil
}
