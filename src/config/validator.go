package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("provider", validateProvider)
	v.RegisterValidation("store_backend", validateStoreBackend)
	v.RegisterValidation("log_format", validateLogFormat)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	if config.Version == "" {
		config.Version = "1.0"
	}

	if err := v.validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			e := validationErrors[0]
			return ValidationError{
				Field:   e.Namespace(),
				Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
				Value:   e.Value(),
			}
		}
		return err
	}

	for node := range config.LLM.Nodes {
		if !slices.Contains([]string{NodeClassifier, NodePlanner, NodeExecutor}, node) {
			return ValidationError{Field: "Config.LLM.Nodes", Message: fmt.Sprintf("unknown node %q", node), Value: node}
		}
	}

	return nil
}

// validateProvider validates LLM provider values
func validateProvider(fl validator.FieldLevel) bool {
	return slices.Contains([]string{"openrouter", "openai", "local"}, fl.Field().String())
}

// validateStoreBackend validates session backend values
func validateStoreBackend(fl validator.FieldLevel) bool {
	return slices.Contains([]string{"memory", "sqlite", "redis"}, fl.Field().String())
}

// validateLogFormat validates log format values
func validateLogFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"text", "json"}, value)
}
