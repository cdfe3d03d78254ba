package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// FormTemplate is the entry template rendered for every form, named without
// its TemplateExtension.
const FormTemplate = "templates/form"

// TemplateExtension is appended to template names when they are loaded.
const TemplateExtension = ".tpl"

// TemplatesFS exposes the embedded template bundle so callers can copy and
// customise it.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
