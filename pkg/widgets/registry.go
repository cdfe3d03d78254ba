package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Widget identifies the concrete input control used for a field.
type Widget string

// Built-in widgets. Every renderer handles each of these.
const (
	WidgetText              Widget = "text"
	WidgetPassword          Widget = "password"
	WidgetNumber            Widget = "number"
	WidgetDate              Widget = "date"
	WidgetTimestamp         Widget = "timestamp"
	WidgetTelephone         Widget = "telephone"
	WidgetCheckbox          Widget = "checkbox"
	WidgetSelect            Widget = "select"
	WidgetMultiSelect       Widget = "multiselect"
	WidgetCustomSelect      Widget = "customselect"
	WidgetCustomMultiSelect Widget = "custommultiselect"
	WidgetAddress           Widget = "address"
)

// Multi reports whether the widget collects a list of values.
func (w Widget) Multi() bool {
	return w == WidgetMultiSelect || w == WidgetCustomMultiSelect
}

// Choice reports whether the widget offers an option list.
func (w Widget) Choice() bool {
	switch w {
	case WidgetSelect, WidgetMultiSelect, WidgetCustomSelect, WidgetCustomMultiSelect:
		return true
	default:
		return false
	}
}

// AllowsCustom reports whether the widget accepts values outside its options.
func (w Widget) AllowsCustom() bool {
	return w == WidgetCustomSelect || w == WidgetCustomMultiSelect
}

func (w Widget) String() string {
	return string(w)
}

// Matcher decides whether a widget override applies to the supplied field.
type Matcher func(field model.FormField) bool

type rule struct {
	widget   Widget
	priority int
	match    Matcher
	order    int
}

// Registry selects the widget for a field. Registered matchers are evaluated
// first, highest priority wins and ties fall back to registration order; when
// none match, the field type maps onto its default widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in overrides registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds an override. Overrides never apply to fields whose type is
// outside the closed enumeration.
func (r *Registry) Register(widget Widget, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	if strings.TrimSpace(string(widget)) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		widget:   widget,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field, or *model.UnknownFieldTypeError
// when the field type is not recognised.
func (r *Registry) Resolve(field model.FormField) (Widget, error) {
	if !field.Type.Valid() {
		return "", &model.UnknownFieldTypeError{Key: field.Key, Type: field.Type}
	}
	if r != nil {
		r.mu.RLock()
		rules := append([]rule(nil), r.rules...)
		r.mu.RUnlock()

		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].priority == rules[j].priority {
				return rules[i].order < rules[j].order
			}
			return rules[i].priority > rules[j].priority
		})
		for _, entry := range rules {
			if entry.match(field) {
				return entry.widget, nil
			}
		}
	}
	return Default(field)
}

// Default maps a field type onto its built-in widget.
func Default(field model.FormField) (Widget, error) {
	switch field.Type {
	case model.FieldTypeText:
		return WidgetText, nil
	case model.FieldTypeNumber:
		return WidgetNumber, nil
	case model.FieldTypeDate:
		return WidgetDate, nil
	case model.FieldTypeTimestamp:
		return WidgetTimestamp, nil
	case model.FieldTypeTelephone:
		return WidgetTelephone, nil
	case model.FieldTypeCheckbox:
		return WidgetCheckbox, nil
	case model.FieldTypeSelect:
		return WidgetSelect, nil
	case model.FieldTypeMultiSelect:
		return WidgetMultiSelect, nil
	case model.FieldTypeCustomSelect:
		return WidgetCustomSelect, nil
	case model.FieldTypeCustomMultiSelect:
		return WidgetCustomMultiSelect, nil
	case model.FieldTypeAddress:
		return WidgetAddress, nil
	default:
		return "", &model.UnknownFieldTypeError{Key: field.Key, Type: field.Type}
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetPassword, 90, func(field model.FormField) bool {
		return field.Type == model.FieldTypeText && field.IsPassword()
	})
}
