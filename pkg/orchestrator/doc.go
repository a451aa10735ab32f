// Package orchestrator wires the sample → context → validation → engine
// pipeline behind one Generate call, with dependency-injection friendly
// options for callers that bring their own engines or context hooks.
package orchestrator
