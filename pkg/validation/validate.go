// Package validation evaluates a field's declared constraints against a
// candidate value. Evaluation is a pure function of (field, candidate): no
// hidden state and no I/O, so re-validating a value always yields the same
// Result.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formengine/pkg/model"
)

const (
	MessageRequired  = "This field is required"
	MessageNumber    = "Please enter a number"
	MessageDate      = "Please enter a valid date (YYYY-MM-DD)"
	MessageTimestamp = "Please enter a valid date and time"
	MessageCheckbox  = "Please check or uncheck this box"
	MessageText      = "Please enter text"
	MessageOption    = "Please choose one of the available options"
	MessageAddress   = "Please enter an address"
)

// Accepted layouts for date and timestamp fields.
var (
	DateLayouts      = []string{"2006-01-02"}
	TimestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}
)

// Result is the outcome of validating one candidate value.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// OK is the passing result.
var OK = Result{Valid: true}

func fail(message string) Result {
	return Result{Valid: false, Message: message}
}

// Validate runs, in order: required-ness, native type coercion for the field
// type, the email chain (pattern, domain, TLD) and numeric bounds. The first
// failure wins. Empty values on optional fields pass without further checks.
func Validate(field model.FormField, candidate model.FieldValue) Result {
	if model.IsEmpty(field.Type, candidate) {
		if field.Required {
			return fail(MessageRequired)
		}
		return OK
	}

	switch field.Type {
	case model.FieldTypeText, model.FieldTypeTelephone:
		text, ok := candidate.(string)
		if !ok {
			return fail(MessageText)
		}
		if email := field.Email(); email != nil {
			return ValidateEmail(*email, text)
		}
		return OK

	case model.FieldTypeNumber:
		number, ok := Number(candidate)
		if !ok {
			return fail(MessageNumber)
		}
		return validateRange(field.NumberRange(), number)

	case model.FieldTypeDate:
		if !parsesAs(candidate, DateLayouts) {
			return fail(MessageDate)
		}
		return OK

	case model.FieldTypeTimestamp:
		if !parsesAs(candidate, TimestampLayouts) {
			return fail(MessageTimestamp)
		}
		return OK

	case model.FieldTypeCheckbox:
		if _, ok := candidate.(bool); !ok {
			return fail(MessageCheckbox)
		}
		return OK

	case model.FieldTypeSelect, model.FieldTypeCustomSelect:
		choice, ok := candidate.(string)
		if !ok {
			return fail(MessageOption)
		}
		if checksMembership(field) && !contains(field.Options, choice) {
			return fail(MessageOption)
		}
		return OK

	case model.FieldTypeMultiSelect, model.FieldTypeCustomMultiSelect:
		choices, ok := model.Strings(candidate)
		if !ok {
			return fail(MessageOption)
		}
		if checksMembership(field) {
			for _, choice := range choices {
				if !contains(field.Options, choice) {
					return fail(MessageOption)
				}
			}
		}
		return OK

	case model.FieldTypeAddress:
		switch candidate.(type) {
		case string, map[string]any:
			return OK
		default:
			return fail(MessageAddress)
		}

	default:
		return fail(fmt.Sprintf("Unsupported field type %q", field.Type))
	}
}

// Number coerces numeric candidates, including numeric strings from text
// inputs.
func Number(value model.FieldValue) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func validateRange(bounds *model.NumberRange, value float64) Result {
	if bounds == nil {
		return OK
	}
	if bounds.Min != nil && value < *bounds.Min {
		return fail(fmt.Sprintf("Value must be at least %s", formatFloat(*bounds.Min)))
	}
	if bounds.Max != nil && value > *bounds.Max {
		return fail(fmt.Sprintf("Value must be at most %s", formatFloat(*bounds.Max)))
	}
	return OK
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsesAs(value model.FieldValue, layouts []string) bool {
	switch v := value.(type) {
	case time.Time:
		return !v.IsZero()
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range layouts {
			if _, err := time.Parse(layout, trimmed); err == nil {
				return true
			}
		}
	}
	return false
}

// checksMembership reports whether a select value must come from the static
// option list. Remote-sourced and custom types accept values the definition
// does not enumerate.
func checksMembership(field model.FormField) bool {
	return !field.Type.AllowsCustom() && field.OptionSource() == "" && len(field.Options) > 0
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
