// Package render is the template engine behind generated slam scripts.
//
// It implements the subset of Jinja markup the scripts need:
//
//	{{ sample_name }}                      variable substitution
//	{{ scan.filename }}                    attribute access on the loop item
//	{% for scan in scans %}...{% endfor %} ordered iteration, nestable
//	{% if not loop.first %}...{% endif %}  conditionals on loop position
//	{{ '%0.3f'|format(scan.x + xoffset) }} fixed-point and zero-pad formatting
//	{# ignored #}                          comments, never evaluated
//
// Templates are parsed once with Parse and rendered any number of times,
// concurrently, with Template.Render. A render either returns the whole output
// or the first *Error, which names the offending expression and its line and
// column. Only expressions that are actually evaluated are resolved, so a
// variable mentioned in a comment or an untaken branch is never required.
//
// Renderer and Registry let callers choose between this engine and the
// pongo2-backed one in pkg/render/template/gotemplate.
package render
