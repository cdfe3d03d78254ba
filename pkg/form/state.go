package form

// State is the lifecycle position of a session.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSubmitSucceeded
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitSucceeded:
		return "submit_succeeded"
	case StateSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// StateFunc observes every transition.
type StateFunc func(from, to State)
