// Package agent provides the tool abstraction and the registry the executor
// dispatches against.
package agent

import (
	"context"

	"github.com/loxresearch/genie/src/aisdk"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// GetType returns the tool type (always "function" for now)
	GetType() string

	// GetName returns the tool's name
	GetName() string

	// GetDescription returns the tool's description
	GetDescription() string

	// GetParameters returns the JSON schema for the tool's parameters
	GetParameters() *jsonschema.Schema

	// Execute runs the tool with the given parameters
	Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)
}

// Spec is the public description of a registered tool.
type Spec struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	ParameterSchema *jsonschema.Schema `json:"parameter_schema"`
}

// SpecOf describes t.
func SpecOf(t Tool) Spec {
	return Spec{
		Name:            t.GetName(),
		Description:     t.GetDescription(),
		ParameterSchema: t.GetParameters(),
	}
}
