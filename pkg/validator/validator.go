// Package validator wraps go-playground/validator with project-specific rules.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
)

var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d+$`)

// Validator wraps the go-playground validator with custom rules.
type Validator struct {
	validate *validator.Validate
}

// ValidationError describes a single failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors is a list of field errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// New creates a Validator with all custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json tag names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "severity", validateSeverity)
	mustRegister(v, "source_type", validateSourceType)
	mustRegister(v, "report_status", validateReportStatus)
	mustRegister(v, "cve_id", validateCVEID)

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validator: register %s: %v", tag, err))
	}
}

// Struct validates a struct and returns ValidationErrors on failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validator: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: messageFor(fe),
		})
	}
	return out
}

// Var validates a single variable against a tag expression.
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", fe.Field())
	case "severity":
		return fmt.Sprintf("%s must be a valid severity (critical, high, medium, low, informational)", fe.Field())
	case "source_type":
		return fmt.Sprintf("%s must be a valid source type (internal, external)", fe.Field())
	case "report_status":
		return fmt.Sprintf("%s must be a valid report status (processing, completed, failed)", fe.Field())
	case "cve_id":
		return fmt.Sprintf("%s must match CVE-YYYY-NNNN", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation on %s", fe.Field(), fe.Tag())
	}
}

func validateSeverity(fl validator.FieldLevel) bool {
	_, err := finding.ParseSeverity(fl.Field().String())
	return err == nil
}

func validateSourceType(fl validator.FieldLevel) bool {
	_, err := organization.ParseSourceType(fl.Field().String())
	return err == nil
}

func validateReportStatus(fl validator.FieldLevel) bool {
	_, err := report.ParseStatus(fl.Field().String())
	return err == nil
}

func validateCVEID(fl validator.FieldLevel) bool {
	return cveIDPattern.MatchString(fl.Field().String())
}

