package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-slamgen/pkg/render"
	"github.com/goliatone/go-slamgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-slamgen/pkg/sample"
	"github.com/goliatone/go-slamgen/pkg/script"
	"github.com/goliatone/go-slamgen/templates"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects an engine registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultEngine overrides the engine used when a request omits one.
// Without it the registry's own default applies.
func WithDefaultEngine(name string) Option {
	return func(o *Orchestrator) {
		o.defaultEngine = name
	}
}

// WithTransformers registers hooks that run, in order, on every context
// before validation.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		for _, t := range transformers {
			if t != nil {
				o.transformers = append(o.transformers, t)
			}
		}
	}
}

// Orchestrator turns sample definitions or prebuilt contexts into slam
// scripts. The zero configuration renders with the embedded templates through
// the native engine, with pongo2 registered as an alternative.
type Orchestrator struct {
	registry      *render.Registry
	defaultEngine string
	transformers  []Transformer
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.registry == nil {
		o.registry, o.initialiseErr = DefaultRegistry()
	}
	return o
}

// DefaultRegistry registers the native engine over the embedded slam
// template, requiring at least one scan, and the pongo2 engine over its
// embedded equivalent.
func DefaultRegistry() (*render.Registry, error) {
	tmpl, err := render.Parse(templates.SlamFileName, templates.SlamFile())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse embedded template: %w", err)
	}
	native := render.NewNative(tmpl, render.RequireNonEmpty("scans"))

	engine, err := gotemplate.New(gotemplate.WithFS(templates.Pongo2FS()))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: pongo2 engine: %w", err)
	}
	pongo, err := gotemplate.NewScriptRenderer(engine, templates.Pongo2SlamFileName)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: pongo2 engine: %w", err)
	}

	return render.NewRegistry(native, pongo)
}

// Request describes one script to generate. Exactly one of Sample or Context
// is required.
type Request struct {
	// Sample is built into a context with pkg/sample.
	Sample *sample.Options

	// Context bypasses the builder for callers that assemble their own.
	Context *script.Context

	// Engine names the registered engine; empty uses the default.
	Engine string
}

// Generate builds the context, runs the transformers, validates the result
// and renders it. Nothing is returned on failure.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	sc, err := o.BuildContext(ctx, req)
	if err != nil {
		return nil, err
	}

	engine, err := o.engineFor(req.Engine)
	if err != nil {
		return nil, err
	}

	output, err := engine.Render(ctx, sc.Vars())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render with %s: %w", engine.Name(), err)
	}
	return output, nil
}

// BuildContext resolves the request to a transformed, validated context.
func (o *Orchestrator) BuildContext(ctx context.Context, req Request) (script.Context, error) {
	var sc script.Context
	switch {
	case req.Sample != nil && req.Context != nil:
		return script.Context{}, errors.New("orchestrator: request has both sample and context")
	case req.Context != nil:
		sc = *req.Context
	case req.Sample != nil:
		s, err := sample.New(*req.Sample)
		if err != nil {
			return script.Context{}, fmt.Errorf("orchestrator: sample: %w", err)
		}
		if sc, err = s.Context(); err != nil {
			return script.Context{}, fmt.Errorf("orchestrator: build context: %w", err)
		}
	default:
		return script.Context{}, errors.New("orchestrator: sample or context is required")
	}

	for _, t := range o.transformers {
		if err := t.Transform(ctx, &sc); err != nil {
			return script.Context{}, fmt.Errorf("orchestrator: transform context: %w", err)
		}
	}
	if err := sc.Validate(); err != nil {
		return script.Context{}, fmt.Errorf("orchestrator: invalid context: %w", err)
	}
	return sc, nil
}

// Engines lists the registered engine names.
func (o *Orchestrator) Engines() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

// Registry returns the engine registry so other orchestrators can share it.
func (o *Orchestrator) Registry() *render.Registry { return o.registry }

func (o *Orchestrator) engineFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: engine registry is nil")
	}
	target := name
	if target == "" {
		target = o.defaultEngine
	}
	engine, err := o.registry.Get(target)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return engine, nil
}
