package model

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldValue is the runtime value held by one field: a string, number or
// boolean, or a slice of those for multi-value types. Address fields may hold
// a map of address components.
type FieldValue = any

// Record maps field keys to values. Submission records are built fresh on
// every submit attempt.
type Record map[string]FieldValue

// OptionList is the list of allowed values for select-like fields.
type OptionList []string

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// IsEmpty applies the required-ness rule: nil, blank strings and empty lists
// are empty, and so is an unchecked checkbox.
func IsEmpty(t FieldType, value FieldValue) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		for _, part := range v {
			if s, ok := part.(string); ok && strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	case bool:
		return t == FieldTypeCheckbox && !v
	default:
		return false
	}
}

// Strings coerces list values ([]string or []any of scalars) into strings.
func Strings(value FieldValue) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case string, bool, int, int64, float64:
				out = append(out, fmt.Sprint(item))
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// CloneValue deep-copies slices and maps so callers cannot mutate state they
// do not own.
func CloneValue(value FieldValue) FieldValue {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// EqualValues reports whether two field values hold the same answer. Lists
// compare element-wise whatever their slice type, so a decoded []any equals
// the []string a control carries.
func EqualValues(a, b FieldValue) bool {
	if isList(a) || isList(b) {
		as, aok := Strings(a)
		bs, bok := Strings(b)
		if !aok || !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isList(value FieldValue) bool {
	switch value.(type) {
	case []string, []any:
		return true
	}
	return false
}
