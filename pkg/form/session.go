// Package form interprets a FormStructure for one fill-in session.
//
// A Session mounts one control per field, tracks the per-field error state,
// and runs the submission state machine:
//
//	Editing -> Submitting -> SubmitSucceeded | SubmitFailed -> Editing
//
// Submit is refused while any field is invalid and is a no-op while a
// previous attempt is outstanding.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// SubmitFunc is the boundary to the backend. It receives a fresh record on
// every attempt.
type SubmitFunc func(ctx context.Context, record model.Record) error

// Option configures a Session.
type Option func(*Session)

// WithDispatcher overrides the dispatcher used to mount controls.
func WithDispatcher(dispatcher *render.Dispatcher) Option {
	return func(s *Session) {
		if dispatcher != nil {
			s.dispatcher = dispatcher
		}
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChangeListener observes every accepted or rejected edit, including
// mount-time seeds.
func WithChangeListener(fn render.ChangeFunc) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithStateListener observes state transitions.
func WithStateListener(fn StateFunc) Option {
	return func(s *Session) {
		s.onState = fn
	}
}

// OptionsFunc observes a remote option list being installed on a field.
type OptionsFunc func(key string, list model.OptionList)

// WithOptionsListener observes remote option lists as they arrive after
// mount, so interactive renderers can redraw choices without blocking on
// AwaitOptions. It fires once per field and delivery.
func WithOptionsListener(fn OptionsFunc) Option {
	return func(s *Session) {
		s.onOptions = fn
	}
}

// WithResetOnSuccess clears every field back to its default after a
// successful submission.
func WithResetOnSuccess(reset bool) Option {
	return func(s *Session) {
		s.resetOnSuccess = reset
	}
}

// WithValues pre-populates the session from a stored record, as edit flows
// do when reopening a response.
func WithValues(values model.Record) Option {
	return func(s *Session) {
		s.prefill = values.Clone()
	}
}

// Session is one active form. It is safe for concurrent use; listeners are
// called without the session lock held.
type Session struct {
	mu sync.Mutex

	ctx        context.Context
	dispatcher *render.Dispatcher
	logger     *slog.Logger
	submit     SubmitFunc

	onChange       render.ChangeFunc
	onState        StateFunc
	onOptions      OptionsFunc
	resetOnSuccess bool
	prefill        model.Record

	structure  model.FormStructure
	order      []string
	controls   map[string]*render.Control
	unrendered []string

	state        State
	serverErrors map[string][]string
	formErrors   []string
	revealed     map[string]bool
	closed       bool

	queue []event
}

type eventKind uint8

const (
	eventState eventKind = iota
	eventChange
	eventOptions
)

type event struct {
	kind  eventKind
	key   string
	value model.FieldValue
	msg   string
	list  model.OptionList
	from  State
	to    State
}

// NewSession validates the structure keys and mounts every field. Fields
// with unknown types are skipped and reported by Unrendered.
func NewSession(ctx context.Context, structure model.FormStructure, submit SubmitFunc, opts ...Option) (*Session, error) {
	if submit == nil {
		return nil, ErrNoSubmitFunc
	}
	if err := structure.CheckKeys(); err != nil {
		return nil, fmt.Errorf("form: invalid structure: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Session{
		ctx:      context.WithoutCancel(ctx),
		logger:   slog.Default(),
		submit:   submit,
		controls: make(map[string]*render.Control),
		revealed: make(map[string]bool),
		state:    StateEditing,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.dispatcher == nil {
		s.dispatcher = render.NewDispatcher(render.WithLogger(s.logger))
	}
	if len(s.prefill) > 0 {
		structure = render.ApplyValues(structure, s.prefill)
	}

	s.mu.Lock()
	s.mountAll(structure)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Structure returns the structure the session currently renders.
func (s *Session) Structure() model.FormStructure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.structure.Clone()
}

// Unrendered lists keys of fields refused at mount because of an unknown
// type. They are absent from submission records.
func (s *Session) Unrendered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.unrendered...)
}

// Change sets one field's value and re-validates only that field. The
// change listener receives the message computed for this value.
func (s *Session) Change(key string, value model.FieldValue) (validation.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return validation.Result{}, ErrClosed
	}
	control, ok := s.controls[key]
	if !ok {
		s.mu.Unlock()
		return validation.Result{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	delete(s.serverErrors, key)
	result := control.Input(value)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	return result, nil
}

// Submit validates every field and, when all pass, hands a fresh record to
// the submission function. It returns *RefusedError when validation blocks
// the attempt, ErrSubmitInProgress when an attempt is outstanding and
// *SubmissionError when the submission function fails. A nil ctx is
// treated as context.Background.
func (s *Session) Submit(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}

	invalid := make(map[string]string)
	for _, key := range s.order {
		control := s.controls[key]
		if result := control.Validate(); !result.Valid {
			invalid[key] = result.Message
			s.revealed[key] = true
			s.queueChange(key, control.Value(), result.Message)
		}
	}
	if len(invalid) > 0 {
		events := s.drain()
		s.mu.Unlock()
		s.emit(events)
		return &RefusedError{Errors: invalid}
	}

	record := s.buildRecord()
	if len(s.unrendered) > 0 {
		s.logger.Warn("submitting without unrendered fields", "omitted", s.unrendered)
	}
	s.transition(StateSubmitting)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)

	err := s.submit(ctx, record)

	s.mu.Lock()
	var result error
	if err != nil {
		mapping := s.mapSubmitError(err)
		s.serverErrors = mapping.Fields
		s.formErrors = mapping.Form
		s.transition(StateSubmitFailed)
		result = &SubmissionError{Err: err, Fields: mapping.Fields, Form: mapping.Form}
		s.logger.Warn("form submission failed", "error", err)
	} else {
		s.serverErrors = nil
		s.formErrors = nil
		s.transition(StateSubmitSucceeded)
		if s.resetOnSuccess {
			for _, key := range s.order {
				s.controls[key].Reset()
			}
			s.revealed = make(map[string]bool)
		}
	}
	s.transition(StateEditing)
	events = s.drain()
	s.mu.Unlock()
	s.emit(events)
	return result
}

// Refresh re-renders with a new structure. Controls whose key and type are
// unchanged keep their value; their new defaults are ignored. New keys are
// mounted and seeded, removed keys are dropped.
func (s *Session) Refresh(structure model.FormStructure) error {
	if err := structure.CheckKeys(); err != nil {
		return fmt.Errorf("form: invalid structure: %w", err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mountAll(structure)
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
	return nil
}

// Close tears the session down. Pending remote option deliveries are
// dropped and later operations return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
}

// Values returns a snapshot of every rendered field's value.
func (s *Session) Values() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildRecord()
}

// Errors returns the messages to surface per field: client-side messages
// of touched fields or fields a refused submit revealed, plus server-side
// messages from the last failed submission.
func (s *Session) Errors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string)
	for _, key := range s.order {
		control := s.controls[key]
		if msg := control.Message(); msg != "" && (control.Touched() || s.revealed[key]) {
			out[key] = append(out[key], msg)
		}
	}
	for key, messages := range s.serverErrors {
		out[key] = render.MergeFormErrors(out[key], messages...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FormErrors returns messages from the last failed submission that matched
// no field.
func (s *Session) FormErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.formErrors...)
}

// FieldState is a read-only view of one mounted control.
type FieldState struct {
	Field        model.FormField
	Widget       widgets.Widget
	Value        model.FieldValue
	Message      string
	Touched      bool
	Options      model.OptionList
	OptionsReady bool
}

// Fields returns the mounted controls in structure order.
func (s *Session) Fields() []FieldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FieldState, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, snapshot(s.controls[key]))
	}
	return out
}

// Field returns the view of one control.
func (s *Session) Field(key string) (FieldState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	control, ok := s.controls[key]
	if !ok {
		return FieldState{}, false
	}
	return snapshot(control), true
}

// AwaitOptions blocks until the remote options for key resolve and installs
// them on the control. Fields without a remote source return their static
// options.
func (s *Session) AwaitOptions(ctx context.Context, key string) (model.OptionList, error) {
	s.mu.Lock()
	control, ok := s.controls[key]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if control.OptionsReady() {
		list := control.Options()
		s.mu.Unlock()
		return list, nil
	}
	source := control.Field().OptionSource()
	s.mu.Unlock()

	cache := s.dispatcher.Cache()
	if cache == nil {
		return nil, nil
	}
	list, err := cache.Wait(ctx, source)
	if err != nil {
		return nil, err
	}
	s.installOptions(key, source, list)
	return list, nil
}

func snapshot(control *render.Control) FieldState {
	return FieldState{
		Field:        control.Field(),
		Widget:       control.Widget(),
		Value:        control.Value(),
		Message:      control.Message(),
		Touched:      control.Touched(),
		Options:      control.Options(),
		OptionsReady: control.OptionsReady(),
	}
}

// mountAll reconciles controls with structure. Callers hold s.mu.
func (s *Session) mountAll(structure model.FormStructure) {
	next := make(map[string]*render.Control, len(structure.Attrs))
	order := make([]string, 0, len(structure.Attrs))
	var unrendered []string

	for _, field := range structure.Attrs {
		if existing, ok := s.controls[field.Key]; ok && sameShape(existing.Field(), field) {
			existing.Redefine(field)
			next[field.Key] = existing
			order = append(order, field.Key)
			continue
		}
		control, err := s.dispatcher.Mount(s.ctx, field, s.queueChange, s.installOptionsFor(field.OptionSource()))
		if err != nil {
			s.logger.Error("field not rendered", "field", field.Key, "type", string(field.Type), "error", err)
			unrendered = append(unrendered, field.Key)
			continue
		}
		next[field.Key] = control
		order = append(order, field.Key)
	}

	s.structure = structure.Clone()
	s.controls = next
	s.order = order
	s.unrendered = unrendered
}

func sameShape(mounted, next model.FormField) bool {
	return mounted.Type == next.Type && mounted.OptionSource() == next.OptionSource()
}

func (s *Session) installOptionsFor(source string) render.OptionsFunc {
	return func(key string, list model.OptionList) {
		s.installOptions(key, source, list)
	}
}

// installOptions sets a resolved list on the control mounted for key and
// notifies the options listener the first time the control becomes ready.
func (s *Session) installOptions(key, source string, list model.OptionList) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	control, ok := s.controls[key]
	if !ok || control.Field().OptionSource() != source {
		s.mu.Unlock()
		return
	}
	fresh := !control.OptionsReady()
	control.SetOptions(list)
	if fresh {
		s.queue = append(s.queue, event{kind: eventOptions, key: key, list: control.Options()})
	}
	events := s.drain()
	s.mu.Unlock()
	s.emit(events)
}

// buildRecord emits exactly one entry per rendered field. Callers hold s.mu.
func (s *Session) buildRecord() model.Record {
	record := make(model.Record, len(s.order))
	for _, key := range s.order {
		record[key] = s.controls[key].Value()
	}
	return record
}

func (s *Session) mapSubmitError(err error) render.ErrorMapping {
	var payload *PayloadError
	if errors.As(err, &payload) {
		return render.MapErrorPayload(s.structure, payload.Payload)
	}
	var fieldErr *validation.FieldError
	if errors.As(err, &fieldErr) {
		return render.MapErrorPayload(s.structure, map[string][]string{fieldErr.Key: {fieldErr.Message}})
	}
	return render.ErrorMapping{Form: []string{err.Error()}}
}

// queueChange is the ChangeFunc handed to controls. It runs with s.mu held.
func (s *Session) queueChange(key string, value model.FieldValue, message string) {
	s.queue = append(s.queue, event{kind: eventChange, key: key, value: value, msg: message})
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	s.queue = append(s.queue, event{kind: eventState, from: from, to: to})
}

func (s *Session) drain() []event {
	events := s.queue
	s.queue = nil
	return events
}

func (s *Session) emit(events []event) {
	for _, ev := range events {
		switch ev.kind {
		case eventChange:
			if s.onChange != nil {
				s.onChange(ev.key, ev.value, ev.msg)
			}
		case eventOptions:
			if s.onOptions != nil {
				s.onOptions(ev.key, ev.list)
			}
		default:
			if s.onState != nil {
				s.onState(ev.from, ev.to)
			}
		}
	}
}
