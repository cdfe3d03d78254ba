package render

import (
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// ChangeFunc receives every value change together with the validation
// message computed for that exact value. An empty message means valid.
type ChangeFunc func(key string, value model.FieldValue, message string)

// Control is the live instance of one field. It is not safe for concurrent
// use; its owner serialises access.
type Control struct {
	field    model.FormField
	widget   widgets.Widget
	onChange ChangeFunc

	value   model.FieldValue
	result  validation.Result
	seeded  bool
	touched bool

	options      model.OptionList
	optionsReady bool
}

// NewControl builds an unseeded control. Most callers go through
// Dispatcher.Mount instead.
func NewControl(field model.FormField, widget widgets.Widget, onChange ChangeFunc) *Control {
	c := &Control{
		field:        field.Clone(),
		widget:       widget,
		onChange:     onChange,
		options:      append(model.OptionList(nil), field.Options...),
		optionsReady: field.OptionSource() == "",
	}
	c.result = validation.Validate(c.field, nil)
	return c
}

func (c *Control) Key() string               { return c.field.Key }
func (c *Control) Field() model.FormField    { return c.field }
func (c *Control) Widget() widgets.Widget    { return c.widget }
func (c *Control) Value() model.FieldValue   { return model.CloneValue(c.value) }
func (c *Control) Result() validation.Result { return c.result }
func (c *Control) Touched() bool             { return c.touched }

// Message returns the current validation message.
func (c *Control) Message() string {
	return c.result.Message
}

// Seed applies the field's mount-time default. It runs at most once per
// control and never after user input, so a default that arrives late cannot
// overwrite an edit. It reports whether a value was applied.
func (c *Control) Seed() bool {
	if c.seeded {
		return false
	}
	c.seeded = true
	if c.touched {
		return false
	}
	seed, ok := c.field.Seed()
	if !ok {
		return false
	}
	c.set(seed)
	return true
}

// Input records a user edit, re-validates this field and reports the change
// synchronously.
func (c *Control) Input(value model.FieldValue) validation.Result {
	c.touched = true
	c.seeded = true
	c.set(value)
	return c.result
}

// Validate re-runs validation against the current value without emitting a
// change.
func (c *Control) Validate() validation.Result {
	c.result = validation.Validate(c.field, c.value)
	return c.result
}

// Reset clears the value and re-applies the default as a fresh mount would.
func (c *Control) Reset() {
	c.touched = false
	c.seeded = false
	c.value = nil
	if !c.Seed() {
		c.set(nil)
	}
}

// Redefine swaps the field definition of a mounted control, for example a
// re-rendered question label. The current value is kept and re-validated
// without emitting a change; new defaults are ignored.
func (c *Control) Redefine(field model.FormField) {
	source := c.field.OptionSource()
	c.field = field.Clone()
	if c.field.OptionSource() == "" {
		c.options = append(model.OptionList(nil), c.field.Options...)
		c.optionsReady = true
	} else if c.field.OptionSource() != source {
		c.options = nil
		c.optionsReady = false
	}
	c.Validate()
}

// Options returns the choices currently offered.
func (c *Control) Options() model.OptionList {
	return append(model.OptionList(nil), c.options...)
}

// OptionsReady reports whether remote options have resolved.
func (c *Control) OptionsReady() bool {
	return c.optionsReady
}

// SetOptions installs a resolved remote list.
func (c *Control) SetOptions(list model.OptionList) {
	c.options = append(model.OptionList(nil), list...)
	c.optionsReady = true
}

func (c *Control) set(value model.FieldValue) {
	c.value = model.CloneValue(value)
	c.result = validation.Validate(c.field, c.value)
	if c.onChange != nil {
		c.onChange(c.field.Key, model.CloneValue(c.value), c.result.Message)
	}
}
