package slamgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-slamgen/pkg/orchestrator"
	"github.com/goliatone/go-slamgen/pkg/sample"
	"github.com/goliatone/go-slamgen/pkg/script"
)

// Context aliases script.Context for callers that only import the root
// package.
type Context = script.Context

// Scan aliases script.Scan.
type Scan = script.Scan

// Frame aliases script.Frame.
type Frame = script.Frame

// SampleOptions aliases sample.Options.
type SampleOptions = sample.Options

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateScript builds a slam script for a sample with the named engine
// ("" for the default native engine).
func GenerateScript(ctx context.Context, opts SampleOptions, engine string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{Sample: &opts, Engine: engine})
}

// GenerateScriptFromContext renders a caller-built context.
func GenerateScriptFromContext(ctx context.Context, c Context, engine string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{Context: &c, Engine: engine})
}

// WriteScript generates the script for opts and writes it to
// <dir>/<name>.slm, creating dir when needed. It returns the file path.
func WriteScript(ctx context.Context, dir string, opts SampleOptions, engine string, options ...orchestrator.Option) (string, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return "", errors.New("slamgen: sample name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("slamgen: sample name %q must not contain path separators", name)
	}

	out, err := GenerateScript(ctx, opts, engine, options...)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = name + "-frames"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("slamgen: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".slm")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("slamgen: write %s: %w", path, err)
	}
	return path, nil
}
