package slamgen

import (
	"io/fs"

	"github.com/goliatone/go-slamgen/templates"
)

// EmbeddedTemplates exposes the built-in slam templates so callers can reuse
// or extend them without importing the templates package directly.
func EmbeddedTemplates() fs.FS {
	return templates.FS()
}
