// Package formengine is the entry point of the form engine: it wires the
// option cache, the widget dispatcher and the built-in renderers, and
// re-exports the types most callers need.
package formengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/loader"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

// Aliases for the core types.
type (
	FormStructure = model.FormStructure
	FormField     = model.FormField
	Record        = model.Record
	RenderOptions = render.RenderOptions
	SubmitFunc    = form.SubmitFunc
)

// Option configures the renderer registry built by NewRegistry.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	source       options.Source
	cache        *options.Cache
	submit       form.SubmitFunc
	driver       tui.PromptDriver
	outputFormat tui.OutputFormat
	submitLabel  string
}

// WithLogger routes diagnostics of every wired component to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOptionsSource fetches remote option lists from source through a
// shared cache.
func WithOptionsSource(source options.Source) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithOptionsCache shares an existing cache; it takes precedence over
// WithOptionsSource.
func WithOptionsCache(cache *options.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithSubmit sets the function the terminal renderer submits records to.
func WithSubmit(fn form.SubmitFunc) Option {
	return func(c *config) {
		c.submit = fn
	}
}

// WithPromptDriver overrides the terminal prompt driver.
func WithPromptDriver(driver tui.PromptDriver) Option {
	return func(c *config) {
		c.driver = driver
	}
}

// WithOutputFormat selects how the terminal renderer serialises records.
func WithOutputFormat(format tui.OutputFormat) Option {
	return func(c *config) {
		c.outputFormat = format
	}
}

// WithSubmitLabel sets the HTML submit button label.
func WithSubmitLabel(label string) Option {
	return func(c *config) {
		c.submitLabel = label
	}
}

// NewDispatcher builds the dispatcher shared by the renderers of a registry.
func NewDispatcher(opts ...Option) *render.Dispatcher {
	cfg := newConfig(opts)
	return cfg.dispatcher()
}

// NewRegistry returns a registry holding the terminal renderer ("tui", the
// default) and the HTML renderer ("html").
func NewRegistry(opts ...Option) (*render.Registry, error) {
	cfg := newConfig(opts)
	dispatcher := cfg.dispatcher()

	tuiOpts := []tui.Option{
		tui.WithDispatcher(dispatcher),
		tui.WithLogger(cfg.logger),
	}
	if cfg.driver != nil {
		tuiOpts = append(tuiOpts, tui.WithPromptDriver(cfg.driver))
	}
	if cfg.submit != nil {
		tuiOpts = append(tuiOpts, tui.WithSubmit(cfg.submit))
	}
	if cfg.outputFormat != "" {
		tuiOpts = append(tuiOpts, tui.WithOutputFormat(cfg.outputFormat))
	}
	terminal, err := tui.New(tuiOpts...)
	if err != nil {
		return nil, fmt.Errorf("formengine: tui renderer: %w", err)
	}

	htmlOpts := []html.Option{
		html.WithDispatcher(dispatcher),
		html.WithLogger(cfg.logger),
	}
	if cfg.submitLabel != "" {
		htmlOpts = append(htmlOpts, html.WithSubmitLabel(cfg.submitLabel))
	}
	markup, err := html.New(htmlOpts...)
	if err != nil {
		return nil, fmt.Errorf("formengine: html renderer: %w", err)
	}

	registry := render.NewRegistry()
	if err := registry.Register(terminal); err != nil {
		return nil, err
	}
	if err := registry.Register(markup); err != nil {
		return nil, err
	}
	return registry, nil
}

// Load reads a JSON or YAML form definition file.
func Load(path string) (FormStructure, loader.Result, error) {
	return loader.LoadFile(path)
}

// NewSession opens an interactive session over structure.
func NewSession(ctx context.Context, structure FormStructure, submit SubmitFunc, opts ...form.Option) (*form.Session, error) {
	return form.NewSession(ctx, structure, submit, opts...)
}

func newConfig(opts []Option) *config {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) dispatcher() *render.Dispatcher {
	cache := c.cache
	if cache == nil && c.source != nil {
		cache = options.NewCache(c.source, options.WithLogger(c.logger))
	}
	return render.NewDispatcher(
		render.WithOptionsCache(cache),
		render.WithLogger(c.logger),
	)
}
