package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/schema"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// Registry is the read-mostly table of tools available to the executor.
// Tools and middleware are registered at startup; after that the registry is
// safe for concurrent use.
type Registry interface {
	List() []Spec
	Invoke(ctx context.Context, name string, params map[string]any) (json.RawMessage, error)
}

type registeredTool struct {
	tool      Tool
	validator *schema.Validator
}

// Toolbox handles tool/function calling functionality.
type Toolbox struct {
	tools      map[string]registeredTool
	order      []string
	middleware []ToolMiddleware
}

var _ Registry = (*Toolbox)(nil)

// NewToolbox creates an empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]registeredTool),
	}
}

// RegisterTool registers a tool and compiles its parameter schema.
func (tb *Toolbox) RegisterTool(tool Tool) error {
	name := tool.GetName()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if _, exists := tb.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}

	var validator *schema.Validator
	if params := tool.GetParameters(); params != nil {
		v, err := schema.Compile(params)
		if err != nil {
			return fmt.Errorf("tool %s: %w", name, err)
		}
		validator = v
	}

	tb.tools[name] = registeredTool{tool: tool, validator: validator}
	tb.order = append(tb.order, name)
	return nil
}

// RegisterMiddleware registers middleware that will be applied to all tool executions.
// Middleware is applied in the order it's registered (first registered = outermost layer).
func (tb *Toolbox) RegisterMiddleware(middleware ToolMiddleware) {
	tb.middleware = append(tb.middleware, middleware)
}

// Tools returns the registered tools in registration order.
func (tb *Toolbox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		out = append(out, tb.tools[name].tool)
	}
	return out
}

// List returns the specs of all registered tools sorted by name.
func (tb *Toolbox) List() []Spec {
	out := make([]Spec, 0, len(tb.tools))
	for _, rt := range tb.tools {
		out = append(out, SpecOf(rt.tool))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetTool returns a specific tool by name.
func (tb *Toolbox) GetTool(name string) (Tool, bool) {
	rt, exists := tb.tools[name]
	return rt.tool, exists
}

// HasTool checks if a tool is available.
func (tb *Toolbox) HasTool(name string) bool {
	_, exists := tb.tools[name]
	return exists
}

// ExecuteTool executes a tool call with middleware applied.
func (tb *Toolbox) ExecuteTool(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	rt, exists := tb.tools[call.Function.Name]
	if !exists {
		return nil, &ToolError{Tool: call.Function.Name, Err: ErrToolNotFound}
	}

	toolExecutor := ToolExecutor(func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
		return rt.tool.Execute(ctx, call)
	})

	finalExecutor := toolExecutor
	for i := len(tb.middleware) - 1; i >= 0; i-- {
		finalExecutor = tb.middleware[i](finalExecutor)
	}

	return finalExecutor(ctx, call)
}

// Invoke validates params against the tool's schema, executes it, and returns
// the JSON result. Tool-reported failures come back as *ToolError.
func (tb *Toolbox) Invoke(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	rt, exists := tb.tools[name]
	if !exists {
		return nil, &ToolError{Tool: name, Err: ErrToolNotFound}
	}
	if params == nil {
		params = map[string]any{}
	}

	args, err := json.Marshal(params)
	if err != nil {
		return nil, &ToolError{Tool: name, Message: "encode parameters", Err: err}
	}
	if rt.validator != nil {
		if err := rt.validator.ValidateJSON(args); err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Err: ErrInvalidParameters}
		}
	}

	resp, err := tb.ExecuteTool(ctx, &aisdk.ToolCall{
		ID:   uuid.New().String(),
		Type: "function",
		Function: aisdk.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, &ToolError{Tool: name, Err: err}
	}
	if resp == nil {
		return json.RawMessage("null"), nil
	}
	if resp.IsError {
		return nil, &ToolError{Tool: name, Message: string(resp.Content)}
	}
	if !json.Valid(resp.Content) {
		quoted, _ := json.Marshal(string(resp.Content))
		return quoted, nil
	}
	return json.RawMessage(resp.Content), nil
}
