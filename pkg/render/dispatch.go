package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// OptionsFunc receives a remote option list once it resolves. It may be
// called from another goroutine.
type OptionsFunc func(key string, list model.OptionList)

// Dispatcher resolves fields to widgets and mounts controls.
type Dispatcher struct {
	widgets *widgets.Registry
	cache   *options.Cache
	logger  *slog.Logger
}

// DispatchOption configures a Dispatcher.
type DispatchOption func(*Dispatcher)

// WithWidgets overrides the widget registry.
func WithWidgets(registry *widgets.Registry) DispatchOption {
	return func(d *Dispatcher) {
		if registry != nil {
			d.widgets = registry
		}
	}
}

// WithOptionsCache wires remote option lookups.
func WithOptionsCache(cache *options.Cache) DispatchOption {
	return func(d *Dispatcher) {
		d.cache = cache
	}
}

// WithLogger routes dispatch diagnostics to logger.
func WithLogger(logger *slog.Logger) DispatchOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher constructs a dispatcher with the built-in widget registry.
func NewDispatcher(opts ...DispatchOption) *Dispatcher {
	d := &Dispatcher{
		widgets: widgets.NewRegistry(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Widgets exposes the registry used for resolution.
func (d *Dispatcher) Widgets() *widgets.Registry {
	return d.widgets
}

// Cache exposes the options cache, which may be nil.
func (d *Dispatcher) Cache() *options.Cache {
	return d.cache
}

// Mount instantiates the control for field and seeds it. Fields with an
// unknown type are refused and nothing is instantiated. Select-like fields
// with a remote source start with an empty list unless it is cached;
// onOptions is invoked when the fetch resolves.
func (d *Dispatcher) Mount(ctx context.Context, field model.FormField, onChange ChangeFunc, onOptions OptionsFunc) (*Control, error) {
	widget, err := d.widgets.Resolve(field)
	if err != nil {
		return nil, fmt.Errorf("render: mount %q: %w", field.Key, err)
	}

	control := NewControl(field, widget, onChange)
	if source := field.OptionSource(); source != "" && widget.Choice() {
		d.wireRemoteOptions(ctx, control, source, onOptions)
	} else if source != "" {
		control.SetOptions(control.Options())
	}

	control.Seed()
	return control, nil
}

func (d *Dispatcher) wireRemoteOptions(ctx context.Context, control *Control, source string, onOptions OptionsFunc) {
	if d.cache == nil {
		d.logger.Warn("remote options requested without a cache", "field", control.Key(), "source", source)
		control.SetOptions(nil)
		return
	}
	key := control.Key()
	list, ok := d.cache.Lookup(ctx, source, func(list model.OptionList) {
		if onOptions != nil {
			onOptions(key, list)
		}
	})
	if ok {
		control.SetOptions(list)
	}
}
