package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s': %s (value: %v)",
		e.Field, e.Message, e.Value)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Validator provides configuration validation
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field string, value any, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// ValidateRequired validates that a field is not empty
func (v *Validator) ValidateRequired(field string, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, value, "is required")
	}
}

// ValidateMinLength validates minimum string length
func (v *Validator) ValidateMinLength(field string, value string, minLength int) {
	if len(value) < minLength {
		v.AddError(field, value, fmt.Sprintf("must be at least %d characters", minLength))
	}
}

// ValidateMaxLength validates maximum string length
func (v *Validator) ValidateMaxLength(field string, value string, maxLength int) {
	if len(value) > maxLength {
		v.AddError(field, value, fmt.Sprintf("must be at most %d characters", maxLength))
	}
}

// ValidateRange validates that a number is within range
func (v *Validator) ValidateRange(field string, value int, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field, value, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
}

// ValidatePositive validates that a number is positive
func (v *Validator) ValidatePositive(field string, value int) {
	if value <= 0 {
		v.AddError(field, value, "must be positive")
	}
}

// ValidateURL validates that a string is a valid URL
func (v *Validator) ValidateURL(field string, value string) {
	if value == "" {
		return
	}

	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.AddError(field, value, "must be a valid URL")
	}
}

// ValidateEmail validates that a string is a valid email
func (v *Validator) ValidateEmail(field string, value string) {
	if value == "" {
		return
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(value) {
		v.AddError(field, value, "must be a valid email address")
	}
}

// ValidateCronExpression validates a cron expression
func (v *Validator) ValidateCronExpression(field string, value string) {
	if value == "" {
		return
	}

	// Basic cron validation (5 or 6 fields)
	// This is a simplified check - a full parser would be more thorough
	parts := strings.Fields(value)

	// Allow special expressions
	if strings.HasPrefix(value, "@") {
		validSpecial := []string{
			"@yearly", "@annually", "@monthly", "@weekly",
			"@daily", "@midnight", "@hourly", "@every",
			"@triggered", "@manual", "@none", // triggered-only jobs
		}

		isValid := false
		for _, special := range validSpecial {
			if value == special || strings.HasPrefix(value, special+" ") {
				isValid = true
				break
			}
		}

		if !isValid {
			v.AddError(field, value, "invalid special cron expression")
		}
		return
	}

	if len(parts) < 5 || len(parts) > 6 {
		v.AddError(field, value, "must have 5 or 6 fields")
		return
	}

	// Validate each field has valid characters
	cronRegex := regexp.MustCompile(`^[\d\*\-,/]+$`)
	for _, part := range parts {
		if !cronRegex.MatchString(part) && part != "?" {
			v.AddError(field, value, "contains invalid characters")
			return
		}
	}
}

// ValidateEnum validates that a value is in a list of allowed values
func (v *Validator) ValidateEnum(field string, value string, allowed []string) {
	if value == "" {
		return
	}

	if slices.Contains(allowed, value) {
		return
	}

	v.AddError(field, value, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// ValidatePath validates that a path exists or can be created
func (v *Validator) ValidatePath(field string, value string) {
	if value == "" {
		return
	}

	// Basic path validation - just check for invalid characters
	if strings.ContainsAny(value, "\x00") {
		v.AddError(field, value, "contains invalid characters")
	}
}

var stageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// DTOValidator validates REST request DTOs with struct tags, registering
// three domain-specific tags on top of validator/v10's built-ins: "cron"
// (a schedule robfig/cron/v3 can parse), "ianatz" (a name
// time.LoadLocation recognizes), and "stagename"
// (alphanumeric/dash/underscore, 1-64 chars).
type DTOValidator struct {
	v *validator.Validate
}

// NewDTOValidator builds a DTOValidator with the cron/ianatz/stagename
// tags registered.
func NewDTOValidator() *DTOValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cronDescriptorParser.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("ianatz", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("stagename", func(fl validator.FieldLevel) bool {
		return stageNameRegex.MatchString(fl.Field().String())
	})

	return &DTOValidator{v: v}
}

var cronDescriptorParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate runs struct-tag validation against dto and converts any
// failures to ValidationErrors, one entry per offending field.
func (dv *DTOValidator) Validate(dto any) error {
	err := dv.v.Struct(dto)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errorsAsValidationErrors(err, &fieldErrs) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: formatTagMessage(fe),
		})
	}
	return out
}

func errorsAsValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}

func formatTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "cron":
		return "must be a valid cron expression"
	case "ianatz":
		return "must be a valid IANA time zone"
	case "stagename":
		return "must be 1-64 alphanumeric/dash/underscore characters"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "required_with":
		return fmt.Sprintf("is required when %s is set", fe.Param())
	case "unique":
		return fmt.Sprintf("must not repeat %s values", fe.Param())
	default:
		return fmt.Sprintf("failed validation %q", fe.Tag())
	}
}
