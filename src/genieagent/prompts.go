// Package genieagent holds the Lox Genie persona: the prompts each graph node
// sends to the model and the tool catalogue they describe.
package genieagent

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/loxresearch/genie/src/agent"
)

// DateLayout renders the current date in prompts, e.g. "October 19, 2025 14:05 UTC".
const DateLayout = "January 02, 2006 15:04 UTC"

// Static prompt templates
const (
	personaSection = `# Role
You are Lox Genie, a fantasy football expert created by the Lox Research team.

# Behavior
You are maximally truth-seeking and do not make assumptions.
You give resolute, unambiguous answers by forming informed opinions.
You blend your knowledge base with ground-up analysis to give the best advice possible.
You ask a follow-up question when the user's request is too vague to act on.
You add a small, witty joke when it fits.
You are concise and avoid filler.`

	contextSection = `# Context
Today's date is {{.Date}}.
Fantasy football managers want actionable advice on how to improve their teams and you deliver it.`

	classifierSection = `# Tools
These tools can be used for research:
{{.Tools}}

# Decision Criteria
Decide your response type using these rules:
- direct_answer: the question can be answered from your own knowledge. Answer it completely in "response".
- research_required: the answer depends on current events, player news, league data or anything you cannot know. Say briefly in "response" what you will look into.
- clarification_needed: the question is vague or missing context. Ask one clear follow-up question in "response".
- off_topic: the message has nothing to do with fantasy football or the NFL. Politely steer back in "response".

# Examples
User: "Who are you?"
{"action": "direct_answer", "response": "I'm Lox Genie, your fantasy football consultant."}

User: "What have people been saying about Caleb Williams lately?"
{"action": "research_required", "response": "I'll check the fantasy subreddits for recent talk about Caleb Williams."}

User: "Help me with my team"
{"action": "clarification_needed", "response": "Happy to! Do you want roster advice, trade strategy, or player research?"}`

	plannerSection = `# Role
You are an expert research planner. Break the user's question into specific, actionable subtasks.

# Context
Today's date is {{.Date}}.

# Tools
Each subtask must be answerable with exactly one call to one of these tools:
{{.Tools}}

# Guidance
- Each subtask targets a different aspect or source.
- Write each subtask as one short sentence naming what to look up.
- Use at most {{.MaxSubtasks}} subtasks.
- Return an empty list if no tool can help.

# Example
Question: "Research rookie running backs for my dynasty draft"
{"subtasks": [
  "Search DynastyFF on Reddit for rookie running back rankings",
  "Search DynastyFF on Reddit for dynasty rookie draft strategy",
  "Search FantasyFootball on Reddit for rookie running back landing spots"
]}`

	executorSection = `# Role
You select the single best tool and its parameters to carry out one research task.

# Context
Today's date is {{.Date}}.

# Tools
Only these tools exist. Parameters must match the tool's input schema exactly.
{{.Tools}}

# Task
{{.Task}}

# Examples
Task: "Get the game-day forecast at Soldier Field"
{"tool": "weather_search", "parameters": {"latitude": 41.8623, "longitude": -87.6167}}

Task: "Search DynastyFF for rookie running backs"
{"tool": "subreddit_search", "parameters": {"query": "rookie running backs", "subreddit": "DynastyFF"}}`
)

var (
	classifierTmpl = template.Must(template.New("classifier").Parse(
		personaSection + "\n\n" + contextSection + "\n\n" + classifierSection))
	plannerTmpl  = template.Must(template.New("planner").Parse(plannerSection))
	executorTmpl = template.Must(template.New("executor").Parse(executorSection))
)

// PromptData is the input to the node prompt templates.
type PromptData struct {
	Now         time.Time
	Tools       []agent.Spec
	Task        string
	MaxSubtasks int
}

type templateData struct {
	Date        string
	Tools       string
	Task        string
	MaxSubtasks int
}

// ClassifierPrompt renders the system prompt for the classifier node. Tools
// are listed by name and description only.
func ClassifierPrompt(d PromptData) (string, error) {
	return render(classifierTmpl, d, FormatToolSummaries(d.Tools))
}

// PlannerPrompt renders the system prompt for the planner node.
func PlannerPrompt(d PromptData) (string, error) {
	if d.MaxSubtasks <= 0 {
		d.MaxSubtasks = 5
	}
	return render(plannerTmpl, d, FormatToolSummaries(d.Tools))
}

// ExecutorPrompt renders the system prompt for one executor subtask. Tools
// are listed with their full parameter schemas.
func ExecutorPrompt(d PromptData) (string, error) {
	return render(executorTmpl, d, FormatTools(d.Tools))
}

func render(t *template.Template, d PromptData, tools string) (string, error) {
	now := d.Now
	if now.IsZero() {
		now = time.Now()
	}
	var b strings.Builder
	err := t.Execute(&b, templateData{
		Date:        FormatDate(now),
		Tools:       tools,
		Task:        d.Task,
		MaxSubtasks: d.MaxSubtasks,
	})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

// FormatDate renders t in UTC using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatToolSummaries lists tools as "- name: first line of description".
func FormatToolSummaries(specs []agent.Spec) string {
	if len(specs) == 0 {
		return "No tools available."
	}
	lines := make([]string, 0, len(specs))
	for _, s := range specs {
		desc, _, _ := strings.Cut(strings.TrimSpace(s.Description), "\n")
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Name, desc))
	}
	return strings.Join(lines, "\n")
}

// FormatTools formats tools with their full descriptions and input schemas.
func FormatTools(specs []agent.Spec) string {
	if len(specs) == 0 {
		return "No tools available."
	}

	toolStrings := make([]string, 0, len(specs))
	for _, s := range specs {
		parts := []string{
			fmt.Sprintf("Tool: %s", s.Name),
			fmt.Sprintf("Description: %s", s.Description),
			"Input Schema:",
		}
		if s.ParameterSchema != nil {
			parts = append(parts, formatSchemaForPrompt(s.ParameterSchema, 1))
		} else {
			parts = append(parts, "  # No schema defined")
		}
		toolStrings = append(toolStrings, strings.Join(parts, "\n"))
	}
	return strings.Join(toolStrings, "\n\n---\n\n")
}

func simpleType(s *jsonschema.Schema) string {
	if s.Type != nil {
		if s.Type.SimpleTypes != nil {
			return string(*s.Type.SimpleTypes)
		}
		if len(s.Type.SliceOfSimpleTypeValues) > 0 {
			return string(s.Type.SliceOfSimpleTypeValues[0])
		}
	}
	return "object"
}

func enumSuffix(s *jsonschema.Schema) string {
	if len(s.Enum) == 0 {
		return ""
	}
	values := make([]string, 0, len(s.Enum))
	for _, e := range s.Enum {
		values = append(values, fmt.Sprintf(`"%v"`, e))
	}
	return fmt.Sprintf(" (enum: %s)", strings.Join(values, " | "))
}

// formatSchemaForPrompt formats a JSON schema for display in the prompt
func formatSchemaForPrompt(schema *jsonschema.Schema, indentLevel int) string {
	if schema == nil {
		return "unknown"
	}

	indent := strings.Repeat("  ", indentLevel)
	var parts []string

	if schema.Description != nil && *schema.Description != "" {
		parts = append(parts, fmt.Sprintf("%s# %s", indent, *schema.Description))
	}

	typeLine := indent + simpleType(schema) + enumSuffix(schema)
	if schema.Items == nil && len(schema.Properties) > 0 && len(schema.Required) > 0 {
		typeLine += fmt.Sprintf(" (required: %s)", strings.Join(schema.Required, ", "))
	}
	parts = append(parts, typeLine)

	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		prop := schema.Properties[name].TypeObject
		if prop == nil {
			continue
		}
		line := fmt.Sprintf("%s  %s: %s%s", indent, name, simpleType(prop), enumSuffix(prop))
		if prop.Description != nil && *prop.Description != "" {
			line += fmt.Sprintf(" # %s", *prop.Description)
		}
		parts = append(parts, line)
	}

	if schema.Items != nil && schema.Items.SchemaOrBool != nil && schema.Items.SchemaOrBool.TypeObject != nil {
		itemSchemaString := formatSchemaForPrompt(schema.Items.SchemaOrBool.TypeObject, indentLevel+1)
		parts = append(parts, fmt.Sprintf("%s  items: %s", indent, strings.TrimSpace(itemSchemaString)))
	}

	return strings.Join(parts, "\n")
}
