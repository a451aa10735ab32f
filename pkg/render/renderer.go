package render

import (
	"context"
	"errors"
)

// ContentType is the media type of a rendered slam script.
const ContentType = "text/plain; charset=utf-8"

// Renderer turns template variables into script bytes. Engines register
// under their Name in a Registry.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, vars Vars) ([]byte, error)
}

// NativeName is the registry name of the built-in engine.
const NativeName = "native"

// Native renders a parsed Template with the built-in engine.
type Native struct {
	tmpl *Template
	opts []Option
}

var _ Renderer = (*Native)(nil)

// NewNative wraps tmpl; opts apply to every render.
func NewNative(tmpl *Template, opts ...Option) *Native {
	return &Native{tmpl: tmpl, opts: opts}
}

func (n *Native) Name() string        { return NativeName }
func (n *Native) ContentType() string { return ContentType }

func (n *Native) Render(ctx context.Context, vars Vars) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("render: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := n.tmpl.Render(vars, n.opts...)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
