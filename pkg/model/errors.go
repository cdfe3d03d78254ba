package model

import (
	"errors"
	"fmt"
)

// ErrEmptyKey is reported for fields without a key.
var ErrEmptyKey = errors.New("model: field key is required")

// UnknownFieldTypeError signals a field whose type is outside the closed
// enumeration. Renderers refuse to instantiate such fields.
type UnknownFieldTypeError struct {
	Key  string
	Type FieldType
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("model: field %q has unknown type %q", e.Key, e.Type)
}

// DuplicateKeyError signals two fields sharing one key.
type DuplicateKeyError struct {
	Key     string
	Indices []int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("model: duplicate field key %q at positions %v", e.Key, e.Indices)
}
