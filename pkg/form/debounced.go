package form

import (
	"github.com/goliatone/go-formengine/pkg/debounce"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/render"
)

// Debounced wraps fn so bursts of changes to one key propagate once, after
// the group's quiescence window. Closing the group drops pending calls.
func Debounced(group *debounce.Group, fn render.ChangeFunc) render.ChangeFunc {
	if group == nil || fn == nil {
		return fn
	}
	return func(key string, value model.FieldValue, message string) {
		value = model.CloneValue(value)
		group.Schedule(key, func() {
			fn(key, value, message)
		})
	}
}
