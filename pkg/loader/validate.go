package loader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Severity grades an Issue.
type Severity string

const (
	// SeverityError makes the definition unusable.
	SeverityError Severity = "error"
	// SeverityWarning flags a field that renders degraded or not at all.
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a definition.
type Issue struct {
	Source   string   `json:"source,omitempty"`
	Index    int      `json:"index"`
	Key      string   `json:"key,omitempty"`
	Field    string   `json:"field"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	location := fmt.Sprintf("attrs[%d]", i.Index)
	if i.Key != "" {
		location = fmt.Sprintf("%s (%s)", location, i.Key)
	}
	if i.Source != "" {
		location = i.Source + ": " + location
	}
	return fmt.Sprintf("%s %s: %s", location, i.Severity, i.Message)
}

// Result aggregates the issues of one definition. Valid is false when any
// issue has error severity.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Errors returns error-severity issues.
func (r Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns warning-severity issues.
func (r Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// Summary joins error messages for use in error values.
func (r Result) Summary() string {
	errs := r.Errors()
	parts := make([]string, 0, len(errs))
	for _, issue := range errs {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

func (r Result) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

var attrIndexPattern = regexp.MustCompile(`Attrs\[(\d+)\]\.(\w+)$`)

// Validate runs struct-tag rules and cross-field checks over structure.
func (l *Loader) Validate(structure model.FormStructure) Result {
	var issues []Issue
	issues = append(issues, l.tagIssues(structure)...)
	issues = append(issues, duplicateIssues(structure)...)
	for idx, field := range structure.Attrs {
		issues = append(issues, fieldIssues(idx, field)...)
	}

	result := Result{Valid: true, Issues: issues}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			result.Valid = false
			break
		}
	}
	return result
}

func (l *Loader) tagIssues(structure model.FormStructure) []Issue {
	err := l.validate.Struct(structure)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Issue{{Index: -1, Field: "attrs", Rule: "struct", Severity: SeverityError, Message: err.Error()}}
	}

	var issues []Issue
	for _, fe := range verrs {
		match := attrIndexPattern.FindStringSubmatch(fe.Namespace())
		if match == nil {
			continue
		}
		idx, _ := strconv.Atoi(match[1])
		issue := Issue{
			Index:    idx,
			Key:      keyAt(structure, idx),
			Field:    jsonName(match[2]),
			Rule:     fe.Tag(),
			Severity: SeverityError,
		}
		switch fe.Tag() {
		case "required":
			issue.Message = fmt.Sprintf("%s is required", issue.Field)
		case "fieldtype":
			issue.Severity = SeverityWarning
			issue.Message = fmt.Sprintf("unknown field type %q; the field will not be rendered", fmt.Sprint(fe.Value()))
		default:
			issue.Message = fmt.Sprintf("%s failed %q", issue.Field, fe.Tag())
		}
		issues = append(issues, issue)
	}
	return issues
}

func duplicateIssues(structure model.FormStructure) []Issue {
	seen := make(map[string]int, len(structure.Attrs))
	var issues []Issue
	for idx, field := range structure.Attrs {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}
		if first, ok := seen[key]; ok {
			issues = append(issues, Issue{
				Index:    idx,
				Key:      key,
				Field:    "key",
				Rule:     "unique",
				Severity: SeverityError,
				Message:  fmt.Sprintf("duplicate key, first used at attrs[%d]", first),
			})
			continue
		}
		seen[key] = idx
	}
	return issues
}

func fieldIssues(idx int, field model.FormField) []Issue {
	warn := func(name, rule, message string) Issue {
		return Issue{Index: idx, Key: field.Key, Field: name, Rule: rule, Severity: SeverityWarning, Message: message}
	}
	var issues []Issue
	if !field.Type.Valid() {
		return nil
	}

	if field.Type.Choice() && !field.Type.AllowsCustom() && len(field.Options) == 0 && field.OptionSource() == "" {
		issues = append(issues, warn("options", "options", "select field has no options and no remote source"))
	}
	if len(field.DefaultOptions) > 0 && !field.Type.Multi() {
		issues = append(issues, warn("defaultOptions", "defaultOptions", "defaultOptions only applies to multi-value types"))
	}
	if field.Type.Multi() && !field.Type.AllowsCustom() && field.OptionSource() == "" {
		for _, option := range field.DefaultOptions {
			if !contains(field.Options, option) {
				issues = append(issues, warn("defaultOptions", "membership", fmt.Sprintf("default option %q is not one of the options", option)))
			}
		}
	}
	if field.IsPassword() && field.Type != model.FieldTypeText {
		issues = append(issues, warn("additionalOptions.isPassword", "password", "isPassword only applies to text fields"))
	}
	if field.OptionSource() != "" && !field.Type.Choice() {
		issues = append(issues, warn("additionalOptions.useDefaultValuesFrom", "source", "remote options only apply to select-like fields"))
	}
	if field.Email() != nil && field.Type != model.FieldTypeText && field.Type != model.FieldTypeTelephone {
		issues = append(issues, warn("additionalValidation.isEmail", "email", "email validation only applies to text fields"))
	}
	if bounds := field.NumberRange(); bounds != nil {
		if field.Type != model.FieldTypeNumber {
			issues = append(issues, warn("additionalValidation.range", "range", "range only applies to number fields"))
		}
		if bounds.Min != nil && bounds.Max != nil && *bounds.Min > *bounds.Max {
			issues = append(issues, Issue{
				Index: idx, Key: field.Key, Field: "additionalValidation.range", Rule: "range",
				Severity: SeverityError, Message: "range min is greater than max",
			})
		}
	}
	return issues
}

func keyAt(structure model.FormStructure, idx int) string {
	if idx < 0 || idx >= len(structure.Attrs) {
		return ""
	}
	return structure.Attrs[idx].Key
}

func jsonName(goName string) string {
	if goName == "" {
		return ""
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
