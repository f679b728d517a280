package render

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/value"
)

// evaluate implements the per-node-type semantics of spec.md §4.4. fs is
// the render group's Field Cache (plus sensitivity sideband): only Field
// lookups are deduplicated through it, since that's the only node type
// keyed by a stable Identifier. The bool result is the value's
// sensitivity, which propagates upward through Array/Call/Pipe
// composition: a structure containing even one sensitive part is itself
// sensitive.
func evaluate(ctx context.Context, rc Context, fs *fieldState, expr ast.Expression) (value.Value, bool, error) {
	// An override matches an expression's source text verbatim, for any
	// node kind (spec.md §6): if present it wins outright, before any
	// field lookup, function dispatch, or concurrent evaluation happens.
	// Overrides are never sensitive; they come from the CLI invocation.
	if s, ok := rc.Override(expr.String()); ok {
		return value.String(s), false, nil
	}

	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e), false, nil

	case *ast.Field:
		return evaluateField(ctx, rc, fs, e)

	case *ast.Array:
		return evaluateArray(ctx, rc, fs, e)

	case *ast.Call:
		return evaluateCall(ctx, rc, fs, e)

	case *ast.Pipe:
		return evaluatePipe(ctx, rc, fs, e)

	default:
		return value.Null(), false, fmt.Errorf("render: unhandled expression type %T", expr)
	}
}

func literalValue(l *ast.Literal) value.Value {
	switch l.Kind {
	case ast.KindNull:
		return value.Null()
	case ast.KindBool:
		return value.Bool(l.Bool)
	case ast.KindInt:
		return value.Int(l.Int)
	case ast.KindFloat:
		return value.Float(l.Float)
	case ast.KindString:
		return value.String(l.Str)
	default:
		return value.Null()
	}
}

// evaluateField resolves a Field through the Field Cache (spec.md §4.2): at
// most one producer per identifier runs Context.Get, and every other
// occurrence of the same identifier within this render group waits for (or
// reuses) that result.
func evaluateField(ctx context.Context, rc Context, fs *fieldState, f *ast.Field) (value.Value, bool, error) {
	// The cycle check must happen before touching the Field Cache: a
	// self-referential field would otherwise lock its own slot's mutex
	// twice on the same goroutine (GetOrInit blocks until the in-flight
	// producer's guard is closed, but that producer is this very call),
	// deadlocking instead of erroring.
	nextCtx, ok := pushField(ctx, f.Name)
	if !ok {
		return value.Null(), false, &ErrRecursiveField{Name: string(f.Name)}
	}

	outcome := fs.cache.GetOrInit(f.Name)
	if outcome.Hit {
		return outcome.Value, fs.isSensitive(f.Name), nil
	}

	v, sensitive, err := rc.Get(nextCtx, f.Name)
	if err != nil {
		outcome.Guard.Drop()
		return value.Null(), false, err
	}
	fs.markSensitive(f.Name, sensitive)
	outcome.Guard.Set(v)
	return v, sensitive, nil
}

// evaluateArray evaluates every element concurrently (spec.md §4.4: "Array
// elements are evaluated concurrently"), failing the whole array on the
// first error.
func evaluateArray(ctx context.Context, rc Context, fs *fieldState, a *ast.Array) (value.Value, bool, error) {
	results := make([]value.Value, len(a.Elements))
	sensFlags := make([]bool, len(a.Elements))
	g, gctx := errgroup.WithContext(ctx)
	for i, elem := range a.Elements {
		i, elem := i, elem
		g.Go(func() error {
			v, sensitive, err := evaluate(gctx, rc, fs, elem)
			if err != nil {
				return err
			}
			results[i] = v
			sensFlags[i] = sensitive
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Null(), false, err
	}
	return value.Array(results), anyTrue(sensFlags), nil
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// evaluateCall evaluates a Call's arguments and dispatches it through the
// Context. Positional arguments are evaluated concurrently; keyword
// arguments are evaluated sequentially in their lexical (insertion) order so
// that, when more than one keyword argument fails, the reported error is
// deterministic (spec.md §5 "Ordering guarantees").
func evaluateCall(ctx context.Context, rc Context, fs *fieldState, c *ast.Call) (value.Value, bool, error) {
	positional := make([]value.Value, len(c.Positional))
	argSensitive := make([]bool, len(c.Positional))
	g, gctx := errgroup.WithContext(ctx)
	for i, arg := range c.Positional {
		i, arg := i, arg
		g.Go(func() error {
			v, sensitive, err := evaluate(gctx, rc, fs, arg)
			if err != nil {
				return err
			}
			positional[i] = v
			argSensitive[i] = sensitive
			return nil
		})
	}
	posErr := g.Wait()

	keyword := orderedmap.New[ast.Identifier, value.Value]()
	kwSensitive := false
	for pair := c.Keyword.Oldest(); pair != nil; pair = pair.Next() {
		v, sensitive, err := evaluate(ctx, rc, fs, pair.Value)
		if err != nil {
			return value.Null(), false, fmt.Errorf("argument %q: %w", pair.Key, err)
		}
		keyword.Set(pair.Key, v)
		kwSensitive = kwSensitive || sensitive
	}

	if posErr != nil {
		return value.Null(), false, posErr
	}

	v, sensitive, err := rc.Call(ctx, c.Name, Arguments{Positional: positional, Keyword: keyword})
	return v, sensitive || kwSensitive || anyTrue(argSensitive), err
}

// evaluatePipe evaluates LHS, then dispatches RHS with LHS prepended as its
// first positional argument.
func evaluatePipe(ctx context.Context, rc Context, fs *fieldState, p *ast.Pipe) (value.Value, bool, error) {
	lhs, lhsSensitive, err := evaluate(ctx, rc, fs, p.LHS)
	if err != nil {
		return value.Null(), false, err
	}

	positional := make([]value.Value, len(p.RHS.Positional)+1)
	argSensitive := make([]bool, len(p.RHS.Positional))
	positional[0] = lhs
	g, gctx := errgroup.WithContext(ctx)
	for i, arg := range p.RHS.Positional {
		i, arg := i, arg
		g.Go(func() error {
			v, sensitive, err := evaluate(gctx, rc, fs, arg)
			if err != nil {
				return err
			}
			positional[i+1] = v
			argSensitive[i] = sensitive
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Null(), false, err
	}

	keyword := orderedmap.New[ast.Identifier, value.Value]()
	kwSensitive := false
	for pair := p.RHS.Keyword.Oldest(); pair != nil; pair = pair.Next() {
		v, sensitive, err := evaluate(ctx, rc, fs, pair.Value)
		if err != nil {
			return value.Null(), false, fmt.Errorf("argument %q: %w", pair.Key, err)
		}
		keyword.Set(pair.Key, v)
		kwSensitive = kwSensitive || sensitive
	}

	v, sensitive, err := rc.Call(ctx, p.RHS.Name, Arguments{Positional: positional, Keyword: keyword})
	return v, sensitive || kwSensitive || lhsSensitive || anyTrue(argSensitive), err
}
