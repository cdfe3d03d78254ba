package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSubmitInProgress is returned by Submit while a previous attempt is
	// still outstanding. The submission function is not called.
	ErrSubmitInProgress = errors.New("form: submission already in progress")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("form: session closed")
	// ErrUnknownField is returned by Change for keys without a control.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrNoSubmitFunc is returned by NewSession without a submission function.
	ErrNoSubmitFunc = errors.New("form: submit function is required")
)

// RefusedError reports a submit attempt blocked by field validation.
type RefusedError struct {
	Errors map[string]string
}

func (e *RefusedError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for key := range e.Errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("form: submit refused, invalid fields: %s", strings.Join(keys, ", "))
}

// SubmissionError wraps a failure returned by the submission function.
// Values are kept so the user can correct and retry.
type SubmissionError struct {
	Err    error
	Fields map[string][]string
	Form   []string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("form: submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PayloadError is the shape a submission function returns when the backend
// rejected the record with per-field messages. Payload keys are mapped onto
// fields with render.MapErrorPayload.
type PayloadError struct {
	Status  int
	Payload map[string][]string
}

func (e *PayloadError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("form: backend rejected submission (status %d)", e.Status)
	}
	return "form: backend rejected submission"
}
