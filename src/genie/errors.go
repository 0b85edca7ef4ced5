package genie

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// ValidationError rejects a malformed turn request before the graph runs.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

var threadIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("thread_id", func(fl validator.FieldLevel) bool {
		return threadIDPattern.MatchString(fl.Field().String())
	})
	return v
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := jsonFieldNames[e.Field()]
	if field == "" {
		field = e.Field()
	}
	var msg string
	switch e.Tag() {
	case "required":
		msg = "is required"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", e.Param())
	case "thread_id":
		msg = "may only contain letters, digits and _ . : -"
	default:
		msg = fmt.Sprintf("failed on tag '%s'", e.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}

var jsonFieldNames = map[string]string{
	"ThreadID": "thread_id",
	"Message":  "message",
	"Reply":    "reply",
}
