package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a missing or malformed input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// fromValidator converts the first validator failure into a ValidationError
// named after the env var carrying the value.
func fromValidator(err error, names map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	if env, ok := names[field]; ok {
		field = env
	}
	return &ValidationError{Field: field, Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "url", "http_url":
		return "must be an http(s) URL"
	case "number":
		return "must be a whole number"
	default:
		return strings.TrimSpace(fmt.Sprintf("failed %s %s", fe.Tag(), fe.Param()))
	}
}
