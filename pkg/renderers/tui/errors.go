package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrHiddenFieldInvalid is returned when a field hidden from the user
	// blocks submission, so no prompt can fix it.
	ErrHiddenFieldInvalid = errors.New("tui: hidden field is invalid")
)
