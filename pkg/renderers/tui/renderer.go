// Package tui fills in a form interactively in the terminal. Each visible
// field is prompted with a control matching its widget; answers flow through
// a form.Session so the terminal shows exactly the messages the session
// computes, and invalid answers are re-asked.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

const otherOption = "Other..."

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	dispatcher        *render.Dispatcher
	submit            form.SubmitFunc
	submitTransformer SubmitTransformer
	theme             Theme
	logger            *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       NewSurveyDriver(),
		outputFormat: OutputFormatJSON,
		logger:       slog.Default(),
		theme:        Theme{ErrorPrefix: "! "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.dispatcher == nil {
		r.dispatcher = render.NewDispatcher(render.WithLogger(r.logger))
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts every visible field, submits the session and serializes the
// accepted record.
func (r *Renderer) Render(ctx context.Context, structure model.FormStructure, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	var accepted model.Record
	submit := func(ctx context.Context, record model.Record) error {
		if r.submit != nil {
			if err := r.submit(ctx, record); err != nil {
				return err
			}
		}
		accepted = record
		return nil
	}

	session, err := form.NewSession(ctx, structure, submit,
		form.WithDispatcher(r.dispatcher),
		form.WithLogger(r.logger),
		form.WithValues(opts.Values),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	defer session.Close()

	for _, key := range session.Unrendered() {
		r.info(ctx, fmt.Sprintf("Skipping field %q: unsupported type", key))
	}
	for _, message := range opts.FormErrors {
		r.fail(ctx, message)
	}

	for _, state := range session.Fields() {
		if !opts.Visible(state.Field) {
			continue
		}
		if err := r.promptField(ctx, session, state, opts.Errors[state.Field.Key]); err != nil {
			return nil, err
		}
	}

	if err := r.submitLoop(ctx, session, opts); err != nil {
		return nil, err
	}

	if r.submitTransformer != nil {
		accepted, err = r.submitTransformer(accepted)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(session.Structure(), accepted)
}

func (r *Renderer) submitLoop(ctx context.Context, session *form.Session, opts render.RenderOptions) error {
	for {
		err := session.Submit(ctx)
		if err == nil {
			return nil
		}

		var refused *form.RefusedError
		if errors.As(err, &refused) {
			for _, state := range session.Fields() {
				if _, bad := refused.Errors[state.Field.Key]; !bad {
					continue
				}
				if !opts.Visible(state.Field) {
					return fmt.Errorf("%w: %s", ErrHiddenFieldInvalid, state.Field.Key)
				}
				if err := r.promptField(ctx, session, state, nil); err != nil {
					return err
				}
			}
			continue
		}

		var failed *form.SubmissionError
		if !errors.As(err, &failed) {
			return err
		}
		r.fail(ctx, fmt.Sprintf("Submission failed: %v", failed.Err))
		for _, message := range failed.Form {
			r.fail(ctx, message)
		}
		for _, state := range session.Fields() {
			messages, ok := failed.Fields[state.Field.Key]
			if !ok || !opts.Visible(state.Field) {
				continue
			}
			if err := r.promptField(ctx, session, state, messages); err != nil {
				return err
			}
		}
		retry, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Retry submission?", Default: true})
		if err != nil {
			return err
		}
		if !retry {
			return fmt.Errorf("tui: %w", failed)
		}
	}
}

// promptField asks until the session accepts the answer.
func (r *Renderer) promptField(ctx context.Context, session *form.Session, state form.FieldState, serverErrors []string) error {
	for _, message := range serverErrors {
		r.fail(ctx, fmt.Sprintf("%s: %s", state.Field.Question, message))
	}

	if state.Widget.Choice() && !state.OptionsReady {
		list, err := session.AwaitOptions(ctx, state.Field.Key)
		if err != nil {
			return err
		}
		state.Options = list
	}

	for {
		value, err := r.ask(ctx, state)
		if err != nil {
			return err
		}
		result, err := session.Change(state.Field.Key, value)
		if err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		if result.Valid {
			return nil
		}
		r.fail(ctx, result.Message)
		state.Value = value
	}
}

func (r *Renderer) ask(ctx context.Context, state form.FieldState) (model.FieldValue, error) {
	field := state.Field
	label := displayLabel(field)
	help := field.Description

	switch state.Widget {
	case widgets.WidgetPassword:
		answer, err := r.driver.Password(ctx, InputConfig{Message: label, Help: help})
		return blankToNil(answer), err
	case widgets.WidgetCheckbox:
		current, _ := state.Value.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})
	case widgets.WidgetNumber:
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(state.Value), Help: help})
		if err != nil {
			return nil, err
		}
		return parseNumber(answer), nil
	case widgets.WidgetAddress:
		answer, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: stringValue(state.Value), Help: help})
		return blankToNil(answer), err
	case widgets.WidgetSelect, widgets.WidgetCustomSelect:
		return r.askSelect(ctx, state, label, help)
	case widgets.WidgetMultiSelect, widgets.WidgetCustomMultiSelect:
		return r.askMultiSelect(ctx, state, label, help)
	default:
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(state.Value), Help: help})
		return blankToNil(answer), err
	}
}

func (r *Renderer) askSelect(ctx context.Context, state form.FieldState, label, help string) (model.FieldValue, error) {
	choices := append([]string(nil), state.Options...)
	if len(choices) == 0 {
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(state.Value), Help: help})
		return blankToNil(answer), err
	}
	if state.Widget.AllowsCustom() {
		choices = append(choices, otherOption)
	}

	current := stringValue(state.Value)
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      choices,
		DefaultIndex: indexOf(choices, current),
		Help:         help,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(choices) {
		return nil, nil
	}
	if choices[idx] != otherOption || !state.Widget.AllowsCustom() {
		return choices[idx], nil
	}
	answer, err := r.driver.Input(ctx, InputConfig{Message: label + " (other)", Help: help})
	return blankToNil(answer), err
}

func (r *Renderer) askMultiSelect(ctx context.Context, state form.FieldState, label, help string) (model.FieldValue, error) {
	current, _ := model.Strings(state.Value)
	var selected []string
	if len(state.Options) > 0 {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  state.Options,
			Defaults: positions(state.Options, current),
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		selected = pick(state.Options, indices)
	}
	if state.Widget.AllowsCustom() || len(state.Options) == 0 {
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: label + " (comma separated)",
			Default: strings.Join(extraValues(current, state.Options), ", "),
			Help:    help,
		})
		if err != nil {
			return nil, err
		}
		selected = append(selected, splitList(answer)...)
	}
	if len(selected) == 0 {
		return nil, nil
	}
	return selected, nil
}

func (r *Renderer) info(ctx context.Context, msg string) {
	r.notify(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) fail(ctx context.Context, msg string) {
	r.notify(ctx, r.theme.ErrorPrefix+msg)
}

// notify shows a message through the driver. Messages are advisory, so a
// driver failure is logged and the prompt loop continues.
func (r *Renderer) notify(ctx context.Context, msg string) {
	if err := r.driver.Info(ctx, msg); err != nil {
		r.logger.Debug("tui: show message", "message", msg, "error", err)
	}
}

func (r *Renderer) serialize(structure model.FormStructure, record model.Record) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(record)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(structure, record)), nil
	default:
		return json.Marshal(record)
	}
}

func displayLabel(field model.FormField) string {
	label := field.Question
	if label == "" {
		label = field.Key
	}
	if field.Required {
		label += " *"
	}
	return label
}

func stringValue(value model.FieldValue) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func blankToNil(answer string) model.FieldValue {
	if strings.TrimSpace(answer) == "" {
		return nil
	}
	return answer
}

// parseNumber returns a float for numeric answers and the raw string
// otherwise, so the validator reports the coercion failure.
func parseNumber(answer string) model.FieldValue {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

func splitList(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func extraValues(values, options []string) []string {
	var out []string
	for _, v := range values {
		if indexOf(options, v) < 0 {
			out = append(out, v)
		}
	}
	return out
}

func flattenForm(record model.Record) string {
	values := url.Values{}
	for key, value := range record {
		switch v := value.(type) {
		case nil:
			values.Set(key, "")
		case []string:
			for _, item := range v {
				values.Add(key+"[]", item)
			}
		case map[string]any:
			for part, item := range v {
				values.Set(key+"."+part, stringValue(item))
			}
		default:
			values.Set(key, stringValue(v))
		}
	}
	return values.Encode()
}

func prettyPrint(structure model.FormStructure, record model.Record) string {
	var b strings.Builder
	for _, field := range structure.Attrs {
		value, ok := record[field.Key]
		if !ok {
			continue
		}
		label := field.Question
		if label == "" {
			label = field.Key
		}
		switch v := value.(type) {
		case []string:
			fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(v, ", "))
		default:
			fmt.Fprintf(&b, "%s: %s\n", label, stringValue(v))
		}
	}
	return b.String()
}

func positions(options, values []string) []int {
	var out []int
	for _, value := range values {
		if idx := indexOf(options, value); idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

func pick(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
