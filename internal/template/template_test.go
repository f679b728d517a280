package template

import (
	"testing"

	"github.com/LucasPickering/slumber/internal/ast"
)

func TestParseRoundTrip(t *testing.T) {
	// Scenario S1 from spec.md §8.
	const src = "Hello {{ name | trim() }}!"
	tpl, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tpl.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(tpl.Chunks))
	}
	if tpl.Chunks[0].Kind != ChunkRaw || tpl.Chunks[0].Raw != "Hello " {
		t.Errorf("chunk 0 = %+v", tpl.Chunks[0])
	}
	if tpl.Chunks[2].Kind != ChunkRaw || tpl.Chunks[2].Raw != "!" {
		t.Errorf("chunk 2 = %+v", tpl.Chunks[2])
	}
	pipe, ok := tpl.Chunks[1].Expr.(*ast.Pipe)
	if !ok {
		t.Fatalf("chunk 1 expr = %T, want *ast.Pipe", tpl.Chunks[1].Expr)
	}
	field, ok := pipe.LHS.(*ast.Field)
	if !ok || field.Name != "name" {
		t.Errorf("pipe.LHS = %+v", pipe.LHS)
	}
	if pipe.RHS.Name != "trim" || len(pipe.RHS.Positional) != 0 {
		t.Errorf("pipe.RHS = %+v", pipe.RHS)
	}

	if got := tpl.Display(); got != src {
		t.Errorf("Display() = %q, want %q", got, src)
	}
}

func TestParseRoundTripLaw(t *testing.T) {
	sources := []string{
		`plain text, no expressions`,
		`{{ a }}{{ b }}`,
		`escaped \{ brace \} and \\ backslash`,
		`{{ f(1, 2.5, "x", true, null, [1, 2]) }}`,
		`{{ f(a=1, b="two") }}`,
		`{{ a | f() | g(x=1) }}`,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			tpl, err := Parse(src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", src, err)
			}
			reparsed, err := Parse(tpl.Display())
			if err != nil {
				t.Fatalf("Parse(Display()): %v", err)
			}
			if len(reparsed.Chunks) != len(tpl.Chunks) {
				t.Fatalf("chunk count mismatch: %d vs %d", len(reparsed.Chunks), len(tpl.Chunks))
			}
			for i := range tpl.Chunks {
				a, b := tpl.Chunks[i], reparsed.Chunks[i]
				if a.Kind != b.Kind {
					t.Fatalf("chunk %d kind mismatch", i)
				}
				if a.Kind == ChunkRaw && a.Raw != b.Raw {
					t.Fatalf("chunk %d raw mismatch: %q vs %q", i, a.Raw, b.Raw)
				}
				if a.Kind == ChunkExpr && a.Expr.String() != b.Expr.String() {
					t.Fatalf("chunk %d expr mismatch: %q vs %q", i, a.Expr.String(), b.Expr.String())
				}
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	const src = `{{ f(a, b=1) }} mid {{ g() }}`
	a, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Display() != b.Display() {
		t.Error("equal sources produced different chunk sequences")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"{{ }",
		"{{ f(1,,) }}",
		"{{ f(a=1, 2) }}",
		"{{ 1abc }}",
		"{{ [1, 2 }}",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			if _, err := Parse(src); err == nil {
				t.Errorf("Parse(%q) expected error, got none", src)
			}
		})
	}
}

func TestParseArrayAndKeywordArgs(t *testing.T) {
	tpl, err := Parse(`{{ f([1, 2, 3], name="x") }}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call, ok := tpl.Chunks[0].Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expr = %T, want *ast.Call", tpl.Chunks[0].Expr)
	}
	arr, ok := call.Positional[0].(*ast.Array)
	if !ok || len(arr.Elements) != 3 {
		t.Errorf("positional[0] = %+v", call.Positional[0])
	}
	v, ok := call.Keyword.Get(ast.Identifier("name"))
	if !ok {
		t.Fatal("expected keyword arg 'name'")
	}
	lit, ok := v.(*ast.Literal)
	if !ok || lit.Str != "x" {
		t.Errorf("keyword value = %+v", v)
	}
}
