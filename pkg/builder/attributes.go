// Package builder edits form structures: it describes a single field as a
// form of its own (question, options, default, flags) and keeps an ordered,
// keyed list of fields for a form creator.
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/model"
)

// Attribute keys of the field attributes form.
const (
	AttrQuestion     = "question"
	AttrOptions      = "options"
	AttrDefaultValue = "defaultValue"
	AttrRequired     = "required"
	AttrIsInternal   = "isInternal"
)

const internalDescription = "Internal fields are not shown to the user, and only appear in the form submission data."

// AttributesForm returns the structure used to define or edit one field of
// the given type. initial, when non-nil, pre-populates the answers.
func AttributesForm(fieldType model.FieldType, initial *model.FormField) (model.FormStructure, error) {
	if !fieldType.Valid() {
		return model.FormStructure{}, &model.UnknownFieldTypeError{Type: fieldType}
	}
	var seed model.FormField
	if initial != nil {
		seed = initial.Clone()
	}

	attrs := []model.FormField{{
		Key:          AttrQuestion,
		Question:     "Field Label/Question",
		Type:         model.FieldTypeText,
		Required:     true,
		DefaultValue: blankToNil(seed.Question),
	}}

	if fieldType.Choice() {
		attrs = append(attrs, model.FormField{
			Key:            AttrOptions,
			Question:       "Options",
			Type:           model.FieldTypeCustomMultiSelect,
			Required:       true,
			Options:        seed.Options,
			DefaultOptions: seed.Options,
		})
	}

	defaultType := model.FieldTypeText
	if fieldType == model.FieldTypeNumber {
		defaultType = model.FieldTypeNumber
	}
	attrs = append(attrs,
		model.FormField{
			Key:          AttrDefaultValue,
			Question:     "Default Value",
			Type:         defaultType,
			DefaultValue: seed.DefaultValue,
		},
		model.FormField{
			Key:          AttrRequired,
			Question:     "Is this field required?",
			Type:         model.FieldTypeCheckbox,
			DefaultValue: seed.Required,
		},
		model.FormField{
			Key:          AttrIsInternal,
			Question:     "Is this an internal field?",
			Description:  internalDescription,
			Type:         model.FieldTypeCheckbox,
			DefaultValue: seed.IsInternal,
		},
	)
	return model.FormStructure{Attrs: attrs}, nil
}

// FieldFromRecord converts a submitted attributes record into a field. The
// key is left empty for the Creator to assign.
func FieldFromRecord(fieldType model.FieldType, record model.Record) (model.FormField, error) {
	if !fieldType.Valid() {
		return model.FormField{}, &model.UnknownFieldTypeError{Type: fieldType}
	}
	question, _ := record[AttrQuestion].(string)
	question = strings.TrimSpace(question)
	if question == "" {
		return model.FormField{}, fmt.Errorf("builder: %s is required", AttrQuestion)
	}

	field := model.FormField{
		Question:     question,
		Type:         fieldType,
		DefaultValue: model.CloneValue(record[AttrDefaultValue]),
		Required:     record[AttrRequired] == true,
		IsInternal:   record[AttrIsInternal] == true,
	}
	if raw, ok := record[AttrOptions]; ok && raw != nil {
		options, ok := model.Strings(raw)
		if !ok {
			return model.FormField{}, fmt.Errorf("builder: %s must be a list of strings", AttrOptions)
		}
		field.Options = options
	}
	if s, ok := field.DefaultValue.(string); ok && strings.TrimSpace(s) == "" {
		field.DefaultValue = nil
	}
	return field, nil
}

// NewAttributesSession opens a session over AttributesForm. Each accepted
// submission is converted with FieldFromRecord and handed to onField.
func NewAttributesSession(ctx context.Context, fieldType model.FieldType, initial *model.FormField, onField func(model.FormField) error, opts ...form.Option) (*form.Session, error) {
	structure, err := AttributesForm(fieldType, initial)
	if err != nil {
		return nil, err
	}
	submit := func(_ context.Context, record model.Record) error {
		field, err := FieldFromRecord(fieldType, record)
		if err != nil {
			return err
		}
		if initial != nil {
			field.Key = initial.Key
			field.Description = initial.Description
			field.AdditionalOptions = initial.Clone().AdditionalOptions
			field.AdditionalValidation = initial.Clone().AdditionalValidation
		}
		return onField(field)
	}
	return form.NewSession(ctx, structure, submit, opts...)
}

func blankToNil(s string) model.FieldValue {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
