package schema

import (
	"encoding/json"
	"fmt"

	compiler "github.com/santhosh-tekuri/jsonschema/v6"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Validator checks JSON documents against a compiled schema.
type Validator struct {
	raw      json.RawMessage
	compiled *compiler.Schema
}

// Compile marshals s and compiles it for validation.
func Compile(s *jsonschema.Schema) (*Validator, error) {
	raw, err := Marshal(s)
	if err != nil {
		return nil, err
	}
	return CompileJSON(raw)
}

// CompileJSON compiles a raw JSON schema document.
func CompileJSON(raw json.RawMessage) (*Validator, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := compiler.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{raw: raw, compiled: compiled}, nil
}

// Raw returns the schema document.
func (v *Validator) Raw() json.RawMessage {
	return v.raw
}

// ValidateJSON validates an encoded JSON document.
func (v *Validator) ValidateJSON(data []byte) error {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.Validate(payload)
}

// Validate validates a decoded JSON value.
func (v *Validator) Validate(payload any) error {
	return v.compiled.Validate(payload)
}
