package schema

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// String creates a JSON schema for a string field.
func String(description string) *jsonschema.Schema {
	return typed("string", description)
}

// StringEnum creates a JSON schema for a string restricted to values.
func StringEnum(description string, values ...string) *jsonschema.Schema {
	s := String(description)
	s.Enum = make([]interface{}, len(values))
	for i, v := range values {
		s.Enum[i] = v
	}
	return s
}

// Integer creates a JSON schema for an integer field.
func Integer(description string) *jsonschema.Schema {
	return typed("integer", description)
}

// ArrayOf creates a JSON schema for a list whose elements match items.
func ArrayOf(description string, items *jsonschema.Schema) *jsonschema.Schema {
	s := typed("array", description)
	s.Items = &jsonschema.Items{SchemaOrBool: &jsonschema.SchemaOrBool{TypeObject: items}}
	return s
}

// FreeObject creates a schema for an object with arbitrary properties.
func FreeObject(description string) *jsonschema.Schema {
	return typed("object", description)
}

// Object creates a closed object schema with properties and required fields.
func Object(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	s := typed("object", "")
	s.Properties = make(map[string]jsonschema.SchemaOrBool, len(properties))
	for name, prop := range properties {
		s.Properties[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}
	s.Required = required
	closed := false
	s.AdditionalProperties = &jsonschema.SchemaOrBool{TypeBoolean: &closed}
	return s
}

func typed(t, description string) *jsonschema.Schema {
	st := jsonschema.SimpleType(t)
	s := &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: &st}}
	if description != "" {
		s.Description = &description
	}
	return s
}

// Reflect builds a schema from a Go value's type and struct tags.
func Reflect(v any) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{}
	s, err := reflector.Reflect(v)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return &s, nil
}

// Marshal renders a schema as JSON.
func Marshal(s *jsonschema.Schema) (json.RawMessage, error) {
	if s == nil {
		return json.RawMessage(`{"type":"object"}`), nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return b, nil
}
