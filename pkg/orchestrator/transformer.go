package orchestrator

import (
	"context"

	"github.com/goliatone/go-slamgen/pkg/script"
)

// Transformer adjusts a context after it is built and before it is validated
// and rendered, e.g. to rename scans or apply a stage offset.
type Transformer interface {
	Transform(ctx context.Context, c *script.Context) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, c *script.Context) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, c *script.Context) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, c)
}

// OffsetTransformer shifts every render by a fixed stage correction on top of
// the sample centre.
func OffsetTransformer(dx, dy float64) Transformer {
	return TransformerFunc(func(_ context.Context, c *script.Context) error {
		c.XOffset += dx
		c.YOffset += dy
		return nil
	})
}
