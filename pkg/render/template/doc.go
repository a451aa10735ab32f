// Package template defines the engine-agnostic contract for file-based
// template renderers. The pongo2 implementation lives in the gotemplate
// subpackage.
package template
