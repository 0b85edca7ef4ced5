package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/schema"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// GenericToolHandler is a type-safe handler function
type GenericToolHandler[TInput any, TOutput any] func(ctx context.Context, input TInput) (TOutput, error)

// GenericTool adapts a typed handler to the Tool interface. The parameter
// schema is reflected from TInput's struct tags.
type GenericTool[TInput any, TOutput any] struct {
	Type        string
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     GenericToolHandler[TInput, TOutput]
}

// GetType returns the tool type (always "function" for now)
func (gt *GenericTool[TInput, TOutput]) GetType() string {
	return gt.Type
}

// GetName returns the tool's name
func (gt *GenericTool[TInput, TOutput]) GetName() string {
	return gt.Name
}

// GetDescription returns the tool's description
func (gt *GenericTool[TInput, TOutput]) GetDescription() string {
	return gt.Description
}

// GetParameters returns the JSON schema for the tool's parameters
func (gt *GenericTool[TInput, TOutput]) GetParameters() *jsonschema.Schema {
	return gt.Schema
}

// Execute decodes the call arguments, runs the handler and encodes its result.
// Failures are reported in the response with IsError set, not as an error.
func (gt *GenericTool[TInput, TOutput]) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	var input TInput
	args := call.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return errorResponse(fmt.Sprintf("failed to parse input: %v", err)), nil
	}

	if err := gt.validateRequired(input); err != nil {
		return errorResponse(fmt.Sprintf("validation failed: %v", err)), nil
	}

	output, err := gt.Handler(ctx, input)
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	content, err := json.Marshal(output)
	if err != nil {
		return errorResponse(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return &aisdk.ToolResponse{
		Type:    "success",
		Content: content,
	}, nil
}

func errorResponse(msg string) *aisdk.ToolResponse {
	return &aisdk.ToolResponse{
		Type:    "error",
		Content: []byte(msg),
		IsError: true,
	}
}

// validateRequired checks that required fields are not empty
func (gt *GenericTool[TInput, TOutput]) validateRequired(input TInput) error {
	if gt.Schema == nil || len(gt.Schema.Required) == 0 {
		return nil
	}

	val := reflect.ValueOf(input)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("input is required")
		}
		val = val.Elem()
	}
	typ := val.Type()

	for _, requiredField := range gt.Schema.Required {
		found := false
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			fieldName := strings.Split(field.Tag.Get("json"), ",")[0]
			if fieldName != requiredField {
				continue
			}
			found = true
			if val.Field(i).IsZero() {
				return fmt.Errorf("required field '%s' is missing", requiredField)
			}
			break
		}
		if !found {
			return fmt.Errorf("required field '%s' not found in struct", requiredField)
		}
	}

	return nil
}

// NewGenericTool creates a tool with a schema reflected from TInput.
func NewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) (Tool, error) {
	var input TInput
	inputType := reflect.TypeOf(input)
	if inputType == nil {
		return nil, fmt.Errorf("tool input type must be a struct, got interface")
	}
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("tool input type must be a struct, got %s", inputType.Kind())
	}

	s, err := schema.Reflect(input)
	if err != nil {
		return nil, err
	}

	return &GenericTool[TInput, TOutput]{
		Type:        "function",
		Name:        name,
		Description: description,
		Schema:      s,
		Handler:     handler,
	}, nil
}

// MustNewGenericTool creates a new generic tool and panics on error
func MustNewGenericTool[TInput any, TOutput any](name, description string, handler GenericToolHandler[TInput, TOutput]) Tool {
	tool, err := NewGenericTool(name, description, handler)
	if err != nil {
		panic(fmt.Sprintf("failed to create generic tool: %v", err))
	}
	return tool
}

var _ Tool = (*GenericTool[struct{}, struct{}])(nil)
