package render

import (
	"github.com/goliatone/go-formengine/pkg/model"
)

// RenderOptions describe per-request data that renderers can use without
// mutating the structure.
type RenderOptions struct {
	// Values pre-populates controls, keyed by field key. Used by edit flows
	// that reopen a stored response.
	Values model.Record
	// Errors surfaces server-side validation feedback keyed by field key.
	Errors map[string][]string
	// FormErrors carries messages that do not belong to a single field.
	FormErrors []string
	// ShowInternal reveals fields flagged isInternal.
	ShowInternal bool
	// Action and Method target the markup form element.
	Action string
	Method string
	// Hidden fields are emitted verbatim by markup renderers.
	Hidden map[string]string
}

// Visible reports whether field is shown under these options.
func (o RenderOptions) Visible(field model.FormField) bool {
	return !field.IsInternal || o.ShowInternal
}

// ApplyValues returns a copy of structure whose defaults are replaced by the
// supplied values. Seeding then picks the stored values up at mount time.
func ApplyValues(structure model.FormStructure, values model.Record) model.FormStructure {
	out := structure.Clone()
	if len(values) == 0 {
		return out
	}
	for i := range out.Attrs {
		field := &out.Attrs[i]
		value, ok := values[field.Key]
		if !ok {
			continue
		}
		if field.Type.Multi() {
			if list, ok := model.Strings(value); ok {
				field.DefaultOptions = list
				field.DefaultValue = nil
				continue
			}
		}
		field.DefaultValue = model.CloneValue(value)
	}
	return out
}
