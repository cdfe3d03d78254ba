// Package html renders a form structure to server-side markup through a
// go-template (pongo2) engine.
package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Option configures the html renderer.
type Option func(*config)

type config struct {
	templateFS  fs.FS
	dispatcher  *render.Dispatcher
	logger      *slog.Logger
	submitLabel string
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// FormTemplate + TemplateExtension.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithDispatcher supplies the dispatcher used to resolve widgets and remote
// options.
func WithDispatcher(dispatcher *render.Dispatcher) Option {
	return func(cfg *config) {
		cfg.dispatcher = dispatcher
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSubmitLabel overrides the submit button text.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			cfg.submitLabel = trimmed
		}
	}
}

// Renderer emits one form element with a control per visible field.
type Renderer struct {
	engine      *engine
	dispatcher  *render.Dispatcher
	logger      *slog.Logger
	submitLabel string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the html renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		logger:      slog.Default(),
		submitLabel: "Submit",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = render.NewDispatcher(render.WithLogger(cfg.logger))
	}

	eng, err := newEngine(cfg.templateFS)
	if err != nil {
		return nil, fmt.Errorf("html renderer: configure templates: %w", err)
	}
	return &Renderer{
		engine:      eng,
		dispatcher:  cfg.dispatcher,
		logger:      cfg.logger,
		submitLabel: cfg.submitLabel,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render mounts the structure in a throwaway session so seeding, prefill and
// widget resolution match interactive rendering, then executes the template.
// Remote options are awaited so the markup carries complete lists.
func (r *Renderer) Render(ctx context.Context, structure model.FormStructure, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("html renderer: context is required")
	}
	session, err := form.NewSession(ctx, structure, func(context.Context, model.Record) error { return nil },
		form.WithDispatcher(r.dispatcher),
		form.WithLogger(r.logger),
		form.WithValues(opts.Values),
	)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	defer session.Close()

	fields := make([]map[string]any, 0, len(structure.Attrs))
	for _, state := range session.Fields() {
		if !opts.Visible(state.Field) {
			continue
		}
		if state.Widget.Choice() && !state.OptionsReady {
			list, err := session.AwaitOptions(ctx, state.Field.Key)
			if err != nil {
				return nil, fmt.Errorf("html renderer: options for %q: %w", state.Field.Key, err)
			}
			state.Options = list
		}
		fields = append(fields, fieldView(state, opts.Errors[state.Field.Key]))
	}

	hidden := make([]map[string]any, 0, len(opts.Hidden))
	for _, field := range render.SortedHiddenFields(opts.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	method := strings.ToLower(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "post"
	}

	out, err := r.engine.render(FormTemplate, map[string]any{
		"form": map[string]any{
			"action":       opts.Action,
			"method":       method,
			"hidden":       hidden,
			"errors":       render.MergeFormErrors(opts.FormErrors),
			"fields":       fields,
			"submit_label": r.submitLabel,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	return out, nil
}

func fieldView(state form.FieldState, serverErrors []string) map[string]any {
	field := state.Field
	view := map[string]any{
		"key":         field.Key,
		"id":          "field-" + field.Key,
		"widget":      state.Widget.String(),
		"question":    field.Question,
		"description": sanitizeDescription(field.Description),
		"required":    field.Required,
		"input_type":  inputType(state.Widget),
		"errors":      render.MergeFormErrors(nil, serverErrors...),
	}

	switch {
	case state.Widget == widgets.WidgetCheckbox:
		checked, _ := state.Value.(bool)
		view["checked"] = checked
	case state.Widget.Multi():
		selected, _ := model.Strings(state.Value)
		view["options"] = optionViews(state.Options, selected)
		view["extra"] = strings.Join(extras(selected, state.Options), ", ")
	case state.Widget.Choice():
		current := formatValue(state.Value)
		view["value"] = current
		view["options"] = optionViews(state.Options, []string{current})
	default:
		view["value"] = formatValue(state.Value)
	}

	if bounds := field.NumberRange(); bounds != nil && state.Widget == widgets.WidgetNumber {
		if bounds.Min != nil {
			view["min"] = strconv.FormatFloat(*bounds.Min, 'f', -1, 64)
		}
		if bounds.Max != nil {
			view["max"] = strconv.FormatFloat(*bounds.Max, 'f', -1, 64)
		}
	}
	return view
}

func inputType(widget widgets.Widget) string {
	switch widget {
	case widgets.WidgetPassword:
		return "password"
	case widgets.WidgetNumber:
		return "number"
	case widgets.WidgetDate:
		return "date"
	case widgets.WidgetTimestamp:
		return "datetime-local"
	case widgets.WidgetTelephone:
		return "tel"
	default:
		return "text"
	}
}

func optionViews(options model.OptionList, selected []string) []map[string]any {
	chosen := make(map[string]struct{}, len(selected))
	for _, value := range selected {
		chosen[value] = struct{}{}
	}
	out := make([]map[string]any, 0, len(options))
	for _, option := range options {
		_, ok := chosen[option]
		out = append(out, map[string]any{"value": option, "selected": ok})
	}
	return out
}

func extras(values []string, options model.OptionList) []string {
	known := make(map[string]struct{}, len(options))
	for _, option := range options {
		known[option] = struct{}{}
	}
	var out []string
	for _, value := range values {
		if _, ok := known[value]; !ok {
			out = append(out, value)
		}
	}
	return out
}

func formatValue(value model.FieldValue) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, key := range []string{"street", "city", "state", "zip", "country"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
