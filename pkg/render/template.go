package render

import (
	"io"
	"strings"
)

// Template is a parsed template. It is immutable and safe for concurrent use;
// every Execute call builds its own scope and output buffer.
type Template struct {
	name string
	root []Node
}

// Option configures a single render.
type Option func(*config)

type config struct {
	nonEmpty map[string]struct{}
}

// RequireNonEmpty makes a for loop over any of the named sequences fail with
// ErrEmptySequence instead of rendering nothing.
func RequireNonEmpty(names ...string) Option {
	return func(cfg *config) {
		if cfg.nonEmpty == nil {
			cfg.nonEmpty = make(map[string]struct{}, len(names))
		}
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				cfg.nonEmpty[trimmed] = struct{}{}
			}
		}
	}
}

// Parse compiles text. Syntax errors and malformed format specs are reported
// here, with their position, rather than at render time. A single trailing
// newline of text is dropped, so a template file that ends its last line
// renders without one.
func Parse(name, text string) (*Template, error) {
	text = trimTrailingNewline(text)
	root, err := parse(newSource(name, text))
	if err != nil {
		return nil, err
	}
	return &Template{name: name, root: root}, nil
}

// Must panics when err is non-nil. Intended for templates embedded at build
// time.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the name the template was parsed with.
func (t *Template) Name() string {
	return t.name
}

// Render expands the template against vars. Rendering is all or nothing: the
// first failure is returned and no partial output is produced.
func (t *Template) Render(vars Vars, opts ...Option) (string, error) {
	s := &state{tmpl: t, vars: vars}
	for _, opt := range opts {
		if opt != nil {
			opt(&s.cfg)
		}
	}
	if err := s.walk(t.root); err != nil {
		return "", err
	}
	return s.out.String(), nil
}

// Execute renders into w. Nothing is written when rendering fails.
func (t *Template) Execute(w io.Writer, vars Vars, opts ...Option) error {
	out, err := t.Render(vars, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Render parses and renders text in one step.
func Render(text string, vars Vars, opts ...Option) (string, error) {
	t, err := Parse("inline", text)
	if err != nil {
		return "", err
	}
	return t.Render(vars, opts...)
}

func trimTrailingNewline(text string) string {
	if strings.HasSuffix(text, "\r\n") {
		return text[:len(text)-2]
	}
	return strings.TrimSuffix(text, "\n")
}
