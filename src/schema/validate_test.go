package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"
)

func TestValidatorEnforcesShape(t *testing.T) {
	v, err := Compile(Object(map[string]*jsonschema.Schema{
		"action":   StringEnum("", "direct_answer", "research_required", "clarification_needed"),
		"response": String(""),
	}, "action", "response"))
	require.NoError(t, err)
	assert.NotEmpty(t, v.Raw())

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"valid", `{"action":"direct_answer","response":"I am Lox Genie"}`, false},
		{"unknown action", `{"action":"dance","response":"x"}`, true},
		{"missing response", `{"action":"direct_answer"}`, true},
		{"extra field", `{"action":"direct_answer","response":"x","extra":1}`, true},
		{"not json", `{"action":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateJSON([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatorArrays(t *testing.T) {
	v, err := Compile(Object(map[string]*jsonschema.Schema{
		"subtasks": ArrayOf("", String("")),
	}, "subtasks"))
	require.NoError(t, err)

	assert.NoError(t, v.ValidateJSON([]byte(`{"subtasks":[]}`)))
	assert.NoError(t, v.ValidateJSON([]byte(`{"subtasks":["a","b"]}`)))
	assert.Error(t, v.ValidateJSON([]byte(`{"subtasks":[1]}`)))
}

func TestCompileJSONRejectsGarbage(t *testing.T) {
	_, err := CompileJSON([]byte(`not a schema`))
	assert.Error(t, err)
}
