package template

import (
	"io"
)

// TemplateRenderer is the contract for file-based template engines: render a
// named template, or raw template content, against data, optionally copying
// the result to writers.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
