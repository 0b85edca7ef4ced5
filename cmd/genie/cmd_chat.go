package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/genie"
	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/theme"
)

// ChatCmd runs an interactive conversation on one thread
type ChatCmd struct {
	Thread string `short:"t" help:"Continue an existing thread"`
	Quiet  bool   `short:"q" help:"Hide node and tool progress"`
}

func (c *ChatCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, logger, err := newApp(ctx, cli, appOptions{progress: !c.Quiet})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	styles := theme.NewStyles(useColor(cli))
	threadID := c.Thread
	if threadID != "" {
		st, err := a.Sessions.Get(ctx, threadID)
		if err != nil {
			return err
		}
		if st != nil && st.Suspended() {
			fmt.Println(styles.Question.Render(st.PendingQuestion))
		}
	}

	fmt.Println(styles.Muted.Render("Lox Genie. Ask about your roster, trades, rookies or matchups. /new starts a new thread, /exit quits."))
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Print(styles.Human.Render("> "))
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/new":
			threadID = ""
			fmt.Println(styles.Muted.Render("started a new thread"))
			continue
		case "/thread":
			fmt.Println(threadID)
			continue
		}

		res, err := a.Service.RunTurn(ctx, genie.TurnRequest{ThreadID: threadID, Message: line})
		if res == nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			var verr *genie.ValidationError
			if errors.As(err, &verr) {
				fmt.Println(styles.Error.Render(verr.Error()))
				continue
			}
			return err
		}
		threadID = res.ThreadID
		printTurn(os.Stdout, res, styles)
		if err != nil {
			logger.Warn("turn was not saved", "thread_id", res.ThreadID, "error", err)
			fmt.Println(styles.Warning.Render("this turn could not be saved; the next message may not see it"))
		}
	}
}

// AskCmd runs a single turn
type AskCmd struct {
	Text   []string `arg:"" help:"The question to ask"`
	Thread string   `short:"t" help:"Continue an existing thread"`
	Output string   `short:"o" enum:"text,json" default:"text" help:"Output format"`
	Quiet  bool     `short:"q" help:"Hide node and tool progress"`
}

func (c *AskCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, _, err := newApp(ctx, cli, appOptions{progress: !c.Quiet && c.Output == "text"})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.Service.RunTurn(ctx, genie.TurnRequest{ThreadID: c.Thread, Message: strings.Join(c.Text, " ")})
	return reportTurn(res, err, c.Output, cli)
}

// ResumeCmd answers a pending clarification
type ResumeCmd struct {
	Thread string   `arg:"" help:"Thread waiting on a clarification"`
	Reply  []string `arg:"" help:"Your answer"`
	Output string   `short:"o" enum:"text,json" default:"text" help:"Output format"`
	Quiet  bool     `short:"q" help:"Hide node and tool progress"`
}

func (c *ResumeCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, _, err := newApp(ctx, cli, appOptions{progress: !c.Quiet && c.Output == "text"})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.Service.ResumeTurn(ctx, genie.ResumeRequest{ThreadID: c.Thread, Reply: strings.Join(c.Reply, " ")})
	return reportTurn(res, err, c.Output, cli)
}

func reportTurn(res *genie.TurnResult, err error, output string, cli *CLI) error {
	if res == nil {
		return err
	}
	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
	} else {
		printTurn(os.Stdout, res, theme.NewStyles(useColor(cli)))
	}

	var storeErr *session.StoreError
	if errors.As(err, &storeErr) {
		return fmt.Errorf("answer produced but thread %s was not saved: %w", res.ThreadID, err)
	}
	return err
}

func printTurn(w io.Writer, res *genie.TurnResult, styles theme.Styles) {
	fmt.Fprintln(w)
	if res.Status == graph.StatusAwaitingClarification {
		fmt.Fprintln(w, styles.Question.Render(res.Response))
		fmt.Fprintln(w, styles.Muted.Render("thread "+res.ThreadID+" is waiting for your reply"))
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, styles.Agent.Render(res.Response))
	fmt.Fprintln(w, styles.Muted.Render("thread "+res.ThreadID))
	fmt.Fprintln(w)
}
