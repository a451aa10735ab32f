package gotemplate

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-slamgen/pkg/render"
)

// Name is the registry name of the pongo2 engine.
const Name = "pongo2"

// ScriptRenderer renders one named template of an Engine as a slam script so
// the pongo2 engine can sit in a render.Registry next to the native one.
//
// pongo2 prints undefined variables as empty strings, so callers should
// validate their context before rendering through it.
type ScriptRenderer struct {
	engine   *Engine
	template string
}

var _ render.Renderer = (*ScriptRenderer)(nil)

// NewScriptRenderer binds engine to the template path name.
func NewScriptRenderer(engine *Engine, name string) (*ScriptRenderer, error) {
	if engine == nil {
		return nil, errors.New("gotemplate: engine is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("gotemplate: template name is required")
	}
	return &ScriptRenderer{engine: engine, template: name}, nil
}

func (r *ScriptRenderer) Name() string        { return Name }
func (r *ScriptRenderer) ContentType() string { return render.ContentType }

func (r *ScriptRenderer) Render(ctx context.Context, vars render.Vars) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("gotemplate: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := r.engine.RenderTemplate(r.template, vars)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
