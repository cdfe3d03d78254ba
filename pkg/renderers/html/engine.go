package html

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	gotemplate "github.com/goliatone/go-template"
)

// templateRenderer is the part of the go-template engine the renderer uses.
type templateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// engine renders named templates from an fs.FS through go-template, which
// compiles each template once and caches it.
type engine struct {
	renderer templateRenderer
}

func newEngine(files fs.FS) (*engine, error) {
	if files == nil {
		return nil, errors.New("html: templates fs is required")
	}
	renderer, err := gotemplate.NewRenderer(
		gotemplate.WithFS(files),
		gotemplate.WithExtension(TemplateExtension),
	)
	if err != nil {
		return nil, fmt.Errorf("html: template engine: %w", err)
	}
	return &engine{renderer: renderer}, nil
}

func (e *engine) render(name string, data map[string]any) ([]byte, error) {
	out, err := e.renderer.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("html: render %q: %w", name, err)
	}
	return []byte(out), nil
}
