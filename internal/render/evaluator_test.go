package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/template"
	"github.com/LucasPickering/slumber/internal/value"
)

// fakeContext is a minimal Context for evaluator tests: fields and calls
// are served from fixed maps, with optional hooks for call-count
// assertions and artificial errors.
type fakeContext struct {
	fields    map[ast.Identifier]value.Value
	sensitive map[ast.Identifier]bool
	fieldErr  map[ast.Identifier]error
	overrides map[string]string

	calls   int32
	onCall  func(name ast.Identifier, args Arguments) (value.Value, bool, error)
	getHook func(id ast.Identifier)
}

func (f *fakeContext) Get(_ context.Context, id ast.Identifier) (value.Value, bool, error) {
	if f.getHook != nil {
		f.getHook(id)
	}
	if err, ok := f.fieldErr[id]; ok {
		return value.Null(), false, err
	}
	v, ok := f.fields[id]
	if !ok {
		return value.Null(), false, fmt.Errorf("fakeContext: unknown field %q", id)
	}
	return v, f.sensitive[id], nil
}

func (f *fakeContext) Call(_ context.Context, name ast.Identifier, args Arguments) (value.Value, bool, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.onCall != nil {
		return f.onCall(name, args)
	}
	return value.Null(), false, fmt.Errorf("fakeContext: unknown function %q", name)
}

func (f *fakeContext) Override(source string) (string, bool) {
	s, ok := f.overrides[source]
	return s, ok
}

func (f *fakeContext) TriggersAllowed() bool { return true }

func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	tpl, err := template.Parse("{{ " + src + " }}")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if len(tpl.Chunks) != 1 || tpl.Chunks[0].Kind != template.ChunkExpr {
		t.Fatalf("parse %q: expected single expression chunk", src)
	}
	return tpl.Chunks[0].Expr
}

func TestEvaluateLiteral(t *testing.T) {
	fc := &fakeContext{}
	fs := newFieldState()
	v, sensitive, err := evaluate(context.Background(), fc, fs, parseExpr(t, `42`))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sensitive {
		t.Fatalf("literal must never be sensitive")
	}
	i, ok := v.AsInt()
	if !ok || i != 42 {
		t.Fatalf("v = %v, want int 42", v)
	}
}

func TestEvaluateFieldSharesFieldCache(t *testing.T) {
	fc := &fakeContext{
		fields:    map[ast.Identifier]value.Value{"name": value.String("alice")},
		sensitive: map[ast.Identifier]bool{},
	}
	var gets int32
	fc.getHook = func(id ast.Identifier) { atomic.AddInt32(&gets, 1) }
	fs := newFieldState()

	expr := parseExpr(t, `name`)

	var wg sync.WaitGroup
	results := make([]value.Value, 5)
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := evaluate(context.Background(), fc, fs, expr)
			if err != nil {
				t.Errorf("evaluate: %v", err)
				return
			}
			results[i] = v
		}()
	}
	wg.Wait()

	if gets != 1 {
		t.Fatalf("Context.Get called %d times, want exactly 1 (Field Cache must dedupe)", gets)
	}
	for i, v := range results {
		s, _ := v.AsString()
		if s != "alice" {
			t.Fatalf("result[%d] = %q, want %q", i, s, "alice")
		}
	}
}

func TestEvaluateFieldPropagatesSensitivity(t *testing.T) {
	fc := &fakeContext{
		fields:    map[ast.Identifier]value.Value{"token": value.String("secret")},
		sensitive: map[ast.Identifier]bool{"token": true},
	}
	fs := newFieldState()
	expr := parseExpr(t, `token`)

	_, sensitive, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !sensitive {
		t.Fatalf("expected sensitive=true on first evaluation")
	}

	// Second (cache-hit) evaluation must still report sensitivity from the
	// fieldState sideband, not just the producer's direct return.
	_, sensitive2, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate (cached): %v", err)
	}
	if !sensitive2 {
		t.Fatalf("expected sensitive=true on cache hit")
	}
}

func TestEvaluateFieldCycleDetected(t *testing.T) {
	// Field "a" resolves by evaluating a Field expression referencing "a"
	// again, simulating a self-referential profile entry.
	fc := &fakeContext{}
	fs := newFieldState()
	aExpr := parseExpr(t, `a`)
	fc.fieldErr = map[ast.Identifier]error{}
	fc.getHook = nil

	// Override Get to recurse into evaluate() itself for "a".
	recursive := &recursiveContext{fs: fs, selfExpr: aExpr}
	_, _, err := evaluate(context.Background(), recursive, fs, aExpr)
	var cycleErr *ErrRecursiveField
	if !errors.As(err, &cycleErr) {
		t.Fatalf("err = %v, want ErrRecursiveField", err)
	}
}

// recursiveContext.Get evaluates the same Field expression again, which
// must be caught by pushField's cycle check rather than deadlocking on the
// field cache's slot mutex.
type recursiveContext struct {
	fs       *fieldState
	selfExpr ast.Expression
}

func (r *recursiveContext) Get(ctx context.Context, id ast.Identifier) (value.Value, bool, error) {
	return evaluate(ctx, r, r.fs, r.selfExpr)
}
func (r *recursiveContext) Call(context.Context, ast.Identifier, Arguments) (value.Value, bool, error) {
	return value.Null(), false, errors.New("unused")
}
func (r *recursiveContext) Override(string) (string, bool) { return "", false }
func (r *recursiveContext) TriggersAllowed() bool          { return true }

func TestEvaluateArrayConcurrentAndSensitive(t *testing.T) {
	fc := &fakeContext{
		fields: map[ast.Identifier]value.Value{
			"a": value.Int(1),
			"b": value.Int(2),
		},
		sensitive: map[ast.Identifier]bool{"b": true},
	}
	fs := newFieldState()
	expr := parseExpr(t, `[a, b, 3]`)

	v, sensitive, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !sensitive {
		t.Fatalf("array containing a sensitive element must itself be sensitive")
	}
	arr, ok := v.AsArray()
	if !ok || len(arr) != 3 {
		t.Fatalf("v = %v, want 3-element array", v)
	}
	if i, _ := arr[0].AsInt(); i != 1 {
		t.Fatalf("arr[0] = %v, want 1", arr[0])
	}
}

func TestEvaluateArrayFailsOnFirstError(t *testing.T) {
	fc := &fakeContext{fields: map[ast.Identifier]value.Value{"a": value.Int(1)}}
	fs := newFieldState()
	expr := parseExpr(t, `[a, missing]`)

	_, _, err := evaluate(context.Background(), fc, fs, expr)
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestEvaluateCallDispatchesWithKeywordArgs(t *testing.T) {
	fc := &fakeContext{
		fields: map[ast.Identifier]value.Value{"x": value.Int(1)},
		onCall: func(name ast.Identifier, args Arguments) (value.Value, bool, error) {
			if name != "f" {
				return value.Null(), false, fmt.Errorf("unexpected call %q", name)
			}
			v, _ := args.Kw("k")
			return v, false, nil
		},
	}
	fs := newFieldState()
	expr := parseExpr(t, `f(x, k=2)`)

	v, _, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	i, _ := v.AsInt()
	if i != 2 {
		t.Fatalf("v = %v, want 2 (keyword arg k)", v)
	}
	if fc.calls != 1 {
		t.Fatalf("calls = %d, want 1", fc.calls)
	}
}

func TestEvaluateCallKeywordErrorTakesPriority(t *testing.T) {
	fc := &fakeContext{}
	fs := newFieldState()
	// Both the positional arg "missing" and the keyword arg "alsomissing"
	// fail to resolve; the keyword error must be what's returned.
	expr := parseExpr(t, `f(missing, k=alsomissing)`)

	_, _, err := evaluate(context.Background(), fc, fs, expr)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), `argument "k"`) {
		t.Fatalf("err = %v, want it to mention keyword argument %q", err, "k")
	}
}

func TestEvaluatePipePrependsLHS(t *testing.T) {
	fc := &fakeContext{
		fields: map[ast.Identifier]value.Value{"x": value.String("hi")},
		onCall: func(name ast.Identifier, args Arguments) (value.Value, bool, error) {
			if name != "trim" {
				return value.Null(), false, fmt.Errorf("unexpected call %q", name)
			}
			v, ok := args.Arg(0)
			if !ok {
				return value.Null(), false, errors.New("missing arg 0")
			}
			return v, false, nil
		},
	}
	fs := newFieldState()
	expr := parseExpr(t, `x | trim()`)

	v, _, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	s, _ := v.AsString()
	if s != "hi" {
		t.Fatalf("v = %v, want %q", v, "hi")
	}
}

func TestOverrideShortCircuitsAnyNode(t *testing.T) {
	fc := &fakeContext{
		overrides: map[string]string{"name": "overridden"},
		fields:    map[ast.Identifier]value.Value{"name": value.String("original")},
	}
	fs := newFieldState()
	expr := parseExpr(t, `name`)

	v, sensitive, err := evaluate(context.Background(), fc, fs, expr)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sensitive {
		t.Fatalf("an override must never be sensitive")
	}
	s, _ := v.AsString()
	if s != "overridden" {
		t.Fatalf("v = %v, want %q", v, "overridden")
	}
}

func TestArgumentsLookupFallsBackToKeyword(t *testing.T) {
	args := Arguments{
		Positional: []value.Value{value.Int(1)},
		Keyword:    orderedmap.New[ast.Identifier, value.Value](),
	}
	args.Keyword.Set("trigger", value.String("always"))

	if _, ok := args.Lookup(0, "unused"); !ok {
		t.Fatalf("Lookup(0, ...) should find the positional arg")
	}
	v, ok := args.Lookup(5, "trigger")
	if !ok {
		t.Fatalf("Lookup(5, \"trigger\") should fall back to keyword")
	}
	s, _ := v.AsString()
	if s != "always" {
		t.Fatalf("v = %v, want %q", v, "always")
	}
}
