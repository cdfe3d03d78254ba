package model

import "strings"

// FormField models one question inside a form.
type FormField struct {
	Key                  string                `json:"key" yaml:"key" validate:"required"`
	Question             string                `json:"question" yaml:"question" validate:"required"`
	Description          string                `json:"description,omitempty" yaml:"description,omitempty"`
	Type                 FieldType             `json:"type" yaml:"type" validate:"required,fieldtype"`
	Required             bool                  `json:"required" yaml:"required"`
	IsInternal           bool                  `json:"isInternal,omitempty" yaml:"isInternal,omitempty"`
	DefaultValue         FieldValue            `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	DefaultOptions       []string              `json:"defaultOptions,omitempty" yaml:"defaultOptions,omitempty"`
	Options              []string              `json:"options,omitempty" yaml:"options,omitempty"`
	AdditionalOptions    *AdditionalOptions    `json:"additionalOptions,omitempty" yaml:"additionalOptions,omitempty"`
	AdditionalValidation *AdditionalValidation `json:"additionalValidation,omitempty" yaml:"additionalValidation,omitempty"`
}

// AdditionalOptions carries display and data-source directives.
type AdditionalOptions struct {
	// IsPassword masks text input.
	IsPassword bool `json:"isPassword,omitempty" yaml:"isPassword,omitempty"`
	// UseDefaultValuesFrom names a remote option source whose list replaces
	// the static Options of select-like fields.
	UseDefaultValuesFrom string `json:"useDefaultValuesFrom,omitempty" yaml:"useDefaultValuesFrom,omitempty"`
}

// AdditionalValidation carries constraints beyond required-ness.
type AdditionalValidation struct {
	IsEmail *EmailValidation `json:"isEmail,omitempty" yaml:"isEmail,omitempty"`
	Range   *NumberRange     `json:"range,omitempty" yaml:"range,omitempty"`
}

// EmailValidation restricts text input to email addresses, optionally limited
// to a set of domains and top-level domains.
type EmailValidation struct {
	IsEmail         bool     `json:"isEmail" yaml:"isEmail"`
	RequireDomain   []string `json:"requireDomain,omitempty" yaml:"requireDomain,omitempty"`
	AllowSubdomains bool     `json:"allowSubdomains,omitempty" yaml:"allowSubdomains,omitempty"`
	AllowTLDs       []string `json:"allowTLDs,omitempty" yaml:"allowTLDs,omitempty"`
}

// NumberRange bounds number fields. Nil bounds are open.
type NumberRange struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// IsPassword reports whether the field masks its input.
func (f FormField) IsPassword() bool {
	return f.AdditionalOptions != nil && f.AdditionalOptions.IsPassword
}

// OptionSource returns the remote option source key, if any.
func (f FormField) OptionSource() string {
	if f.AdditionalOptions == nil {
		return ""
	}
	return strings.TrimSpace(f.AdditionalOptions.UseDefaultValuesFrom)
}

// Email returns the email constraint when one is declared.
func (f FormField) Email() *EmailValidation {
	if f.AdditionalValidation == nil {
		return nil
	}
	return f.AdditionalValidation.IsEmail
}

// NumberRange returns the numeric bounds when declared.
func (f FormField) NumberRange() *NumberRange {
	if f.AdditionalValidation == nil {
		return nil
	}
	return f.AdditionalValidation.Range
}

// HasConstraints reports whether the field declares validation beyond
// required-ness.
func (f FormField) HasConstraints() bool {
	return f.Email() != nil || f.NumberRange() != nil
}

// Seed returns the mount-time value for the field: DefaultOptions for
// multi-value types, DefaultValue otherwise.
func (f FormField) Seed() (FieldValue, bool) {
	if f.Type.Multi() && len(f.DefaultOptions) > 0 {
		return append([]string(nil), f.DefaultOptions...), true
	}
	if f.DefaultValue == nil {
		return nil, false
	}
	return f.DefaultValue, true
}

// Clone returns a deep copy of the field definition.
func (f FormField) Clone() FormField {
	out := f
	out.DefaultOptions = cloneStrings(f.DefaultOptions)
	out.Options = cloneStrings(f.Options)
	if f.AdditionalOptions != nil {
		opts := *f.AdditionalOptions
		out.AdditionalOptions = &opts
	}
	if f.AdditionalValidation != nil {
		av := AdditionalValidation{}
		if email := f.AdditionalValidation.IsEmail; email != nil {
			av.IsEmail = &EmailValidation{
				IsEmail:         email.IsEmail,
				RequireDomain:   cloneStrings(email.RequireDomain),
				AllowSubdomains: email.AllowSubdomains,
				AllowTLDs:       cloneStrings(email.AllowTLDs),
			}
		}
		if rng := f.AdditionalValidation.Range; rng != nil {
			av.Range = &NumberRange{Min: cloneFloat(rng.Min), Max: cloneFloat(rng.Max)}
		}
		out.AdditionalValidation = &av
	}
	out.DefaultValue = CloneValue(f.DefaultValue)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
