package genieagent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/loxresearch/genie/src/agent"
)

func TestFormatSchemaForPrompt(t *testing.T) {
	tests := []struct {
		name     string
		schema   *jsonschema.Schema
		expected []string // Lines that should appear in output
	}{
		{
			name: "simple string schema",
			schema: &jsonschema.Schema{
				Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
				Description: ptr("A simple string field"),
			},
			expected: []string{
				"# A simple string field",
				"string",
			},
		},
		{
			name: "object with properties",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("object"))},
				Properties: map[string]jsonschema.SchemaOrBool{
					"query": {
						TypeObject: &jsonschema.Schema{
							Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
							Description: ptr("Keywords to search for"),
						},
					},
					"limit": {
						TypeObject: &jsonschema.Schema{
							Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("integer"))},
						},
					},
				},
				Required: []string{"query"},
			},
			expected: []string{
				"object (required: query)",
				"query: string # Keywords to search for",
				"limit: integer",
			},
		},
		{
			name: "array with items",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("array"))},
				Items: &jsonschema.Items{
					SchemaOrBool: &jsonschema.SchemaOrBool{
						TypeObject: &jsonschema.Schema{
							Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
						},
					},
				},
			},
			expected: []string{
				"array",
				"items: string",
			},
		},
		{
			name: "enum field",
			schema: &jsonschema.Schema{
				Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
				Enum: []interface{}{"add", "drop"},
			},
			expected: []string{
				`string (enum: "add" | "drop")`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSchemaForPrompt(tt.schema, 0)
			for _, expected := range tt.expected {
				if !strings.Contains(result, expected) {
					t.Errorf("Expected output to contain %q, but got:\n%s", expected, result)
				}
			}
		})
	}
}

func testSpecs() []agent.Spec {
	return []agent.Spec{{
		Name:        "subreddit_search",
		Description: "Search a fantasy football subreddit.\n\nLonger usage notes.",
		ParameterSchema: &jsonschema.Schema{
			Type: &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("object"))},
			Properties: map[string]jsonschema.SchemaOrBool{
				"query": {TypeObject: &jsonschema.Schema{
					Type:        &jsonschema.Type{SimpleTypes: ptr(jsonschema.SimpleType("string"))},
					Description: ptr("Keywords"),
				}},
			},
			Required: []string{"query"},
		},
	}}
}

func TestFormatTools(t *testing.T) {
	result := FormatTools(testSpecs())
	for _, expected := range []string{
		"Tool: subreddit_search",
		"Longer usage notes.",
		"Input Schema:",
		"object (required: query)",
		"query: string # Keywords",
	} {
		assert.Contains(t, result, expected)
	}

	assert.Equal(t, "- subreddit_search: Search a fantasy football subreddit.", FormatToolSummaries(testSpecs()))
	assert.Equal(t, "No tools available.", FormatTools(nil))
	assert.Equal(t, "No tools available.", FormatToolSummaries(nil))
}

func TestNodePrompts(t *testing.T) {
	now := time.Date(2025, time.October, 19, 14, 5, 0, 0, time.UTC)
	data := PromptData{Now: now, Tools: testSpecs(), Task: "Search Reddit for rookie RB rankings"}

	classifier, err := ClassifierPrompt(data)
	require.NoError(t, err)
	assert.Contains(t, classifier, "You are Lox Genie")
	assert.Contains(t, classifier, "October 19, 2025 14:05 UTC")
	assert.Contains(t, classifier, "- subreddit_search: Search a fantasy football subreddit.")
	assert.NotContains(t, classifier, "Longer usage notes.")
	assert.Contains(t, classifier, "clarification_needed")

	planner, err := PlannerPrompt(data)
	require.NoError(t, err)
	assert.Contains(t, planner, "at most 5 subtasks")

	executor, err := ExecutorPrompt(data)
	require.NoError(t, err)
	assert.Contains(t, executor, "Search Reddit for rookie RB rankings")
	assert.Contains(t, executor, "query: string # Keywords")
}

func TestFormatDate(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "September 07, 2025 18:30 UTC", FormatDate(time.Date(2025, 9, 7, 13, 30, 0, 0, est)))
}

// Helper function to create pointers
func ptr[T any](v T) *T {
	return &v
}
