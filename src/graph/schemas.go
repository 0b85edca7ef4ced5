package graph

import (
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/schema"
	"github.com/loxresearch/genie/src/state"
)

func actionNames() []string {
	out := make([]string, len(state.Actions))
	for i, a := range state.Actions {
		out[i] = string(a)
	}
	return out
}

var (
	classificationSchema = llm.MustSchema("classification", schema.Object(map[string]*jsonschema.Schema{
		"action":   schema.StringEnum("How to handle the latest message", actionNames()...),
		"response": schema.String("Text shown to the user"),
	}, "action", "response"))

	planSchema = llm.MustSchema("plan", schema.Object(map[string]*jsonschema.Schema{
		"subtasks": schema.ArrayOf("Ordered research subtasks, each answerable by one tool call", schema.String("")),
	}, "subtasks"))

	// parameters differs per tool, so the object stays open and the tool
	// validates it on invoke.
	toolSelectionSchema = llm.MustSchema("tool_selection", schema.Object(map[string]*jsonschema.Schema{
		"tool":       schema.String("Name of the tool to call"),
		"parameters": schema.FreeObject("Arguments matching the tool's input schema"),
	}, "tool", "parameters")).Lenient()
)

type classification struct {
	Action   state.Action `json:"action"`
	Response string       `json:"response"`
}

type planOutput struct {
	Subtasks []string `json:"subtasks"`
}

type toolSelection struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}
