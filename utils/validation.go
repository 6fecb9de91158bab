package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var (
	panRegex   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

const (
	ContactEmail = "email"
	ContactPhone = "phone"
)

func init() {
	validate = validator.New()
	// Money fields are decimals; validate them by numeric value so tags
	// like gt=0 work.
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func ValidatePAN(pan string) bool {
	return panRegex.MatchString(pan)
}

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// DetectContact tells whether s is an email or a phone number, or "" when
// it is neither.
func DetectContact(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case ValidateEmail(s):
		return ContactEmail
	case ValidatePhone(s):
		return ContactPhone
	default:
		return ""
	}
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func FormatValidationError(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := fieldError.Field()
			switch fieldError.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", field)
			case "email":
				errors[field] = "Invalid email format"
			case "url":
				errors[field] = fmt.Sprintf("%s must be a valid URL", field)
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
			case "gt":
				errors[field] = fmt.Sprintf("%s must be greater than %s", field, fieldError.Param())
			case "gte":
				errors[field] = fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
			case "lte":
				errors[field] = fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
			case "len":
				errors[field] = fmt.Sprintf("%s must be exactly %s characters", field, fieldError.Param())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
	}

	return errors
}

// ValidationSummary flattens FormatValidationError into one sorted line.
func ValidationSummary(err error) string {
	fields := FormatValidationError(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, msg := range fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
