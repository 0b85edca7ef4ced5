package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/agent"
)

// ToolsCmd represents all tool-related commands
type ToolsCmd struct {
	List ToolsListCmd `cmd:"list" help:"List registered tools"`
	Run  ToolsRunCmd  `cmd:"run" help:"Invoke a tool directly"`
}

// ToolsListCmd lists registered tools
type ToolsListCmd struct {
	Format string `short:"f" enum:"table,json" default:"table" help:"Output format"`
}

func (c *ToolsListCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	a, _, err := newApp(ctx, cli, appOptions{skipModel: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	specs := a.Tools.List()
	if c.Format == "json" {
		return printToolsJSON(specs)
	}
	return printToolsTable(specs)
}

// ToolsRunCmd invokes a tool with JSON parameters
type ToolsRunCmd struct {
	Name   string `arg:"" help:"Tool name"`
	Params string `short:"p" default:"{}" help:"Parameters as a JSON object"`
	File   string `short:"f" type:"existingfile" help:"Load parameters from file"`
}

func (c *ToolsRunCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	raw := []byte(c.Params)
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("failed to read parameters: %w", err)
		}
		raw = data
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}

	a, _, err := newApp(ctx, cli, appOptions{skipModel: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	result, err := a.Tools.Invoke(ctx, c.Name, params)
	if err != nil {
		return err
	}

	var pretty any
	if err := json.Unmarshal(result, &pretty); err != nil {
		fmt.Println(string(result))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func printToolsTable(specs []agent.Spec) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, s := range specs {
		desc, _, _ := strings.Cut(s.Description, "\n")
		fmt.Fprintf(w, "%s\t%s\n", s.Name, desc)
	}
	return w.Flush()
}

func printToolsJSON(specs []agent.Spec) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(specs)
}
