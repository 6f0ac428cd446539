package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hoahub/portal-api/model"
)

// SlugRegex matches tenant slugs: lowercase, digits, hyphen-separated
var SlugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with portal-specific tags
// registered: "doctype" for the closed document-type vocabulary and
// "tenantslug" for association slugs.
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
		return model.IsValidDocType(model.DocType(fl.Field().String()))
	})
	_ = v.RegisterValidation("tenantslug", func(fl validator.FieldLevel) bool {
		return SlugRegex.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", e.Field())
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
			case "gte":
				errors[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				errors[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "doctype":
				errors[field] = fmt.Sprintf("%s is not a recognized document type", e.Field())
			case "tenantslug":
				errors[field] = fmt.Sprintf("%s is not a valid association slug", e.Field())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errors
}

// ValidateSlug checks if an association slug is valid
func ValidateSlug(slug string) bool {
	if len(slug) < 2 || len(slug) > 63 {
		return false
	}
	return SlugRegex.MatchString(slug)
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}
