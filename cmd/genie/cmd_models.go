package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/app"
)

// ModelsCmd lists models from the configured endpoint
type ModelsCmd struct {
	Format    string `help:"Output format (table, json)" enum:"table,json" default:"table"`
	Search    string `short:"s" help:"Only show models whose id or name contains this text"`
	WithCosts bool   `help:"Include pricing information"`
}

// Run executes the models command
func (c *ModelsCmd) Run(ctx context.Context, kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	provider, err := app.NewProvider(cfg.LLM, createCLILogger(cli.LogLevel, cli.NoColor))
	if err != nil {
		return err
	}

	models, err := provider.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	models = filterModels(models, c.Search)
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	switch c.Format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	default:
		return printModelsTable(models, c.WithCosts, cfg.LLM.Model)
	}
}

func filterModels(models []*aisdk.ModelInfo, query string) []*aisdk.ModelInfo {
	if query == "" {
		return models
	}
	query = strings.ToLower(query)
	var out []*aisdk.ModelInfo
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ID), query) || strings.Contains(strings.ToLower(m.Name), query) {
			out = append(out, m)
		}
	}
	return out
}

func printModelsTable(models []*aisdk.ModelInfo, withCosts bool, current string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "\tID\tNAME\tCONTEXT"
	if withCosts {
		header += "\tPROMPT\tCOMPLETION"
	}
	fmt.Fprintln(w, header)
	for _, m := range models {
		marker := ""
		if m.ID == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%d", marker, m.ID, m.Name, m.ContextLength)
		if withCosts {
			prompt, completion := "-", "-"
			if m.Pricing != nil {
				prompt, completion = m.Pricing.Prompt, m.Pricing.Completion
			}
			line += "\t" + prompt + "\t" + completion
		}
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}
