// Package render turns form fields into live controls and defines the
// contract output renderers implement.
//
// A Dispatcher mounts one Control per field. Each Control is seeded exactly
// once from the field's defaults, re-validates only itself on input and
// reports (key, value, message) through its ChangeFunc before Input returns,
// so the owner never observes a message computed for an older value.
package render

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Renderer converts a FormStructure into a byte representation (terminal
// answers, HTML markup, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, structure model.FormStructure, options RenderOptions) ([]byte, error)
}
