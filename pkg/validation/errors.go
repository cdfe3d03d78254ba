package validation

import "fmt"

// FieldError is a user-correctable validation failure for one field.
type FieldError struct {
	Key     string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.Key, e.Message)
}

// AsError converts a failing Result into a *FieldError. Passing results
// return nil.
func AsError(key string, result Result) error {
	if result.Valid {
		return nil
	}
	return &FieldError{Key: key, Message: result.Message}
}
