// Package validation checks incoming payloads with go-playground/validator v10
// plus the cross-field rules that struct tags cannot express.
//
// Every payload is validated completely: field errors are collected into a
// FieldErrors map keyed by wire field name, and cross-field rules run once the
// individual fields are well formed. Errors that belong to no single field are
// reported under the "_schema" key.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SchemaField collects errors that span several fields.
const SchemaField = "_schema"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	lookupDenylist  = regexp.MustCompile(`[<>"'%;()&+]`)
)

// GetValidator returns the singleton validator instance.
// Field names in errors are the json tag names of the payload structs.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		// Registration only fails on an empty tag name, which cannot happen here.
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("lookupsafe", func(fl validator.FieldLevel) bool {
			return !lookupDenylist.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FieldErrors maps a field name to every message raised against it.
type FieldErrors map[string][]string

// Add appends msg to field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Has reports whether any error was recorded for field.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Err returns nil when no errors were recorded, otherwise an *Error.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return &Error{Fields: fe}
}

// Error is returned when a payload fails validation.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// check runs the struct tags of s and records every failure in fe.
func check(fe FieldErrors, s any) {
	err := GetValidator().Struct(s)
	if err == nil {
		return
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fe.Add(SchemaField, err.Error())
		return
	}
	for _, fieldErr := range validationErrs {
		fe.Add(fieldErr.Field(), translateError(fieldErr))
	}
}

// fieldMessages overrides the generic templates for specific field/tag pairs.
var fieldMessages = map[string]string{
	"email.required":            "Email is required",
	"email.email":               "Invalid email format",
	"username.min":              "Username must be between 3 and 30 characters",
	"username.max":              "Username must be between 3 and 30 characters",
	"username.username":         "Username can only contain letters, numbers, and underscores",
	"password.min":              "Password must be between 8 and 128 characters",
	"password.max":              "Password must be between 8 and 128 characters",
	"password.required":         "Password is required",
	"new_password.min":          "Password must be between 8 and 128 characters",
	"new_password.max":          "Password must be between 8 and 128 characters",
	"daily_calories.gte":        "Daily calories must be between 1200 and 5000",
	"daily_calories.lte":        "Daily calories must be between 1200 and 5000",
	"daily_protein.gte":         "Daily protein must be between 20 and 300g",
	"daily_protein.lte":         "Daily protein must be between 20 and 300g",
	"daily_carbs.gte":           "Daily carbs must be between 50 and 500g",
	"daily_carbs.lte":           "Daily carbs must be between 50 and 500g",
	"daily_fat.gte":             "Daily fat must be between 20 and 200g",
	"daily_fat.lte":             "Daily fat must be between 20 and 200g",
	"daily_fiber.gte":           "Daily fiber must be between 10 and 50g",
	"daily_fiber.lte":           "Daily fiber must be between 10 and 50g",
	"name.lookupsafe":           "Food name contains invalid characters",
	"serving_size.gte":          "Serving size must be between 1 and 2000g",
	"serving_size.lte":          "Serving size must be between 1 and 2000g",
	"calories.gte":              "Calories must be between 0 and 5000",
	"calories.lte":              "Calories must be between 0 and 5000",
	"protein.gte":               "Protein must be between 0 and 500g",
	"protein.lte":               "Protein must be between 0 and 500g",
	"carbs.gte":                 "Carbs must be between 0 and 500g",
	"carbs.lte":                 "Carbs must be between 0 and 500g",
	"fat.gte":                   "Fat must be between 0 and 500g",
	"fat.lte":                   "Fat must be between 0 and 500g",
	"fiber.gte":                 "Fiber must be between 0 and 100g",
	"fiber.lte":                 "Fiber must be between 0 and 100g",
	"meal_type.oneof":           "Invalid meal type",
	"quantity.gte":              "Quantity must be between 0.1 and 5000g",
	"quantity.lte":              "Quantity must be between 0.1 and 5000g",
	"date.datetime":             "Date must be in YYYY-MM-DD format",
	"start_date.datetime":       "Date must be in YYYY-MM-DD format",
	"end_date.datetime":         "Date must be in YYYY-MM-DD format",
	"query.min":                 "Search query must be between 2 and 100 characters",
	"query.max":                 "Search query must be between 2 and 100 characters",
	"limit.gte":                 "Limit must be between 1 and 50",
	"limit.lte":                 "Limit must be between 1 and 50",
	"title.min":                 "Recipe title must be between 2 and 200 characters",
	"title.max":                 "Recipe title must be between 2 and 200 characters",
	"instructions.required":     "Instructions are required",
	"old_password.required": "Old password is required",
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"datetime": "%s must be a valid date",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if msg, ok := fieldMessages[field+"."+tag]; ok {
		return msg
	}
	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
