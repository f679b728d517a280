// Package render implements the Render Context (spec.md §4.3, C3), the
// Expression Evaluator (§4.4, C4), and the Render Orchestrator (§4.8, C8):
// the glue package that turns a parsed Template plus a Collection into
// rendered bytes, wiring internal/chain, internal/httpengine, and
// internal/store together. It is the only package in this module allowed
// to depend on all the others — everything downstream (internal/chain,
// internal/httpengine, internal/store, internal/collection) stays ignorant
// of render so the dependency graph has no cycle.
package render

import (
	"context"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/value"
)

// Context is the abstract capability surface consumed by the evaluator
// (spec.md §4.3): field lookups, function dispatch, CLI overrides, and
// interactive prompt/select channels. The concrete implementation is
// *Group, built by Renderer.NewGroup and configured per render (a plain
// one-shot CLI render leaves Prompts nil; an interactive session wires a
// ChannelPrompter).
type Context interface {
	// Get resolves a field, usually a profile entry or a named chain. The
	// bool result reports whether the value must be treated as sensitive
	// (set when the field falls through to a Chain marked sensitive).
	Get(ctx context.Context, id ast.Identifier) (value.Value, bool, error)
	// Call dispatches a builtin function by name. The bool result reports
	// whether the value must be treated as sensitive.
	Call(ctx context.Context, name ast.Identifier, args Arguments) (value.Value, bool, error)
	// Override returns the CLI override for an expression's source text,
	// if one was supplied via `-o key=value`.
	Override(source string) (string, bool)
	// TriggersAllowed reports whether a Request-sourced chain may launch a
	// sub-request, or must fail closed and use history only.
	TriggersAllowed() bool
}

// Arguments holds the already-evaluated positional and keyword arguments
// to a function call.
type Arguments struct {
	Positional []value.Value
	Keyword    *orderedmap.OrderedMap[ast.Identifier, value.Value]
}

// Arg returns the i'th positional argument.
func (a Arguments) Arg(i int) (value.Value, bool) {
	if i < 0 || i >= len(a.Positional) {
		return value.Value{}, false
	}
	return a.Positional[i], true
}

// Kw returns a keyword argument by name.
func (a Arguments) Kw(name ast.Identifier) (value.Value, bool) {
	if a.Keyword == nil {
		return value.Value{}, false
	}
	return a.Keyword.Get(name)
}

// Lookup returns a positional argument by index, falling back to a
// keyword argument by name — functions like `prompt(message?, default?)`
// accept either calling convention.
func (a Arguments) Lookup(i int, name ast.Identifier) (value.Value, bool) {
	if v, ok := a.Arg(i); ok {
		return v, true
	}
	return a.Kw(name)
}

// Len returns the number of positional arguments.
func (a Arguments) Len() int { return len(a.Positional) }
