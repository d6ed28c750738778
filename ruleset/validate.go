package ruleset

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/relaxsd/authority/cel"
)

// Validator instance shared across calls; validator.Validate caches
// struct metadata and is safe for concurrent use.
var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func newValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails for an empty tag name.
		_ = validate.RegisterValidation("identifier", validateIdentifier)
	})
	return validate
}

// validateIdentifier accepts action, alias, and resource type names:
// non-empty strings of letters, digits, and the separators . _ - :.
func validateIdentifier(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case r == '.' || r == '_' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return true
}

// Validate checks a ruleset without applying it: struct tags on every
// definition, plus CEL compilation of every non-empty condition. Errors
// carry actionable, field-qualified messages.
func Validate(rs Ruleset) error {
	if err := newValidator().Struct(rs); err != nil {
		return formatValidationErrors(err)
	}

	for i, def := range rs.Rules {
		if def.Condition == "" {
			continue
		}
		if err := validateCondition(def.Condition); err != nil {
			return fmt.Errorf("rules[%d].Condition: %w", i, err)
		}
	}
	return nil
}

// Condition evaluator shared across Validate calls; an Evaluator is safe
// for concurrent use once constructed.
var (
	evalOnce sync.Once
	eval     *cel.Evaluator
	evalErr  error
)

// validateCondition checks a condition compiles against the default
// environment.
func validateCondition(expr string) error {
	evalOnce.Do(func() {
		eval, evalErr = cel.NewEvaluator()
	})
	if evalErr != nil {
		return evalErr
	}
	return eval.Validate(expr)
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a
// single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s items", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "identifier":
		return fmt.Sprintf("%s must be a name of letters, digits, or . _ - :", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
