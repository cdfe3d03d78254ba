package model

import (
	"errors"
	"fmt"
	"strings"
)

// FormStructure is the ordered field list defining one form.
type FormStructure struct {
	Attrs []FormField `json:"attrs" yaml:"attrs" validate:"dive"`
}

// Field returns the field with the given key.
func (s FormStructure) Field(key string) (FormField, bool) {
	for _, field := range s.Attrs {
		if field.Key == key {
			return field, true
		}
	}
	return FormField{}, false
}

// Keys returns field keys in order.
func (s FormStructure) Keys() []string {
	keys := make([]string, 0, len(s.Attrs))
	for _, field := range s.Attrs {
		keys = append(keys, field.Key)
	}
	return keys
}

// Clone returns a deep copy of the structure.
func (s FormStructure) Clone() FormStructure {
	out := FormStructure{Attrs: make([]FormField, len(s.Attrs))}
	for i, field := range s.Attrs {
		out.Attrs[i] = field.Clone()
	}
	return out
}

// Validate checks the key invariant (non-empty, unique) and reports fields
// with unknown types. Key violations make the structure unusable; unknown
// types are returned alongside them joined with errors.Join so callers can
// decide per field. Use errors.As to inspect individual problems.
func (s FormStructure) Validate() error {
	var errs []error
	positions := make(map[string][]int, len(s.Attrs))
	order := make([]string, 0, len(s.Attrs))

	for idx, field := range s.Attrs {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			errs = append(errs, fmt.Errorf("position %d: %w", idx, ErrEmptyKey))
			continue
		}
		if _, seen := positions[key]; !seen {
			order = append(order, key)
		}
		positions[key] = append(positions[key], idx)
		if !field.Type.Valid() {
			errs = append(errs, &UnknownFieldTypeError{Key: key, Type: field.Type})
		}
	}
	for _, key := range order {
		if idx := positions[key]; len(idx) > 1 {
			errs = append(errs, &DuplicateKeyError{Key: key, Indices: idx})
		}
	}
	return errors.Join(errs...)
}

// CheckKeys validates only the key invariant.
func (s FormStructure) CheckKeys() error {
	err := s.Validate()
	if err == nil {
		return nil
	}
	var fatal []error
	for _, item := range unwrapJoined(err) {
		var unknown *UnknownFieldTypeError
		if errors.As(item, &unknown) {
			continue
		}
		fatal = append(fatal, item)
	}
	return errors.Join(fatal...)
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// AttrKeySeparator joins a question label and a field key in response grid
// column keys: "<question>_attr_key:<key>".
const AttrKeySeparator = "_attr_key:"
