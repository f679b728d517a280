package render

import (
	"context"
	"os"
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/LucasPickering/slumber/internal/ast"
	"github.com/LucasPickering/slumber/internal/value"
)

func callBuiltin(t *testing.T, g *Group, name ast.Identifier, positional []value.Value, keyword map[ast.Identifier]value.Value) (value.Value, bool, error) {
	t.Helper()
	kw := orderedmap.New[ast.Identifier, value.Value]()
	for k, v := range keyword {
		kw.Set(k, v)
	}
	return g.Call(context.Background(), name, Arguments{Positional: positional, Keyword: kw})
}

func TestFnEnv(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, err := r.NewGroup(nil, nil)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	os.Setenv("SLUMBER_RENDER_TEST_VAR", "present")
	defer os.Unsetenv("SLUMBER_RENDER_TEST_VAR")

	v, sensitive, err := callBuiltin(t, g, "env", []value.Value{value.String("SLUMBER_RENDER_TEST_VAR")}, nil)
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	if sensitive {
		t.Fatalf("env() must not be sensitive")
	}
	s, _ := v.AsString()
	if s != "present" {
		t.Fatalf("v = %q, want %q", s, "present")
	}

	v, _, err = callBuiltin(t, g, "env", []value.Value{value.String("SLUMBER_RENDER_TEST_VAR_UNSET")}, nil)
	if err != nil {
		t.Fatalf("env (unset): %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("v = %v, want null for unset env var", v)
	}
}

func TestFnTrim(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)
	v, _, err := callBuiltin(t, g, "trim", []value.Value{value.String("  hi  ")}, nil)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	s, _ := v.AsString()
	if s != "hi" {
		t.Fatalf("v = %q, want %q", s, "hi")
	}
}

func TestFnToString(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)
	v, _, err := callBuiltin(t, g, "to_string", []value.Value{value.Int(7)}, nil)
	if err != nil {
		t.Fatalf("to_string: %v", err)
	}
	s, _ := v.AsString()
	if s != "7" {
		t.Fatalf("v = %q, want %q", s, "7")
	}
}

func TestFnBase64RoundTrip(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)

	encoded, _, err := callBuiltin(t, g, "base64encode", []value.Value{value.String("hello")}, nil)
	if err != nil {
		t.Fatalf("base64encode: %v", err)
	}
	es, _ := encoded.AsString()
	if es != "aGVsbG8=" {
		t.Fatalf("encoded = %q", es)
	}

	decoded, _, err := callBuiltin(t, g, "base64decode", []value.Value{value.String(es)}, nil)
	if err != nil {
		t.Fatalf("base64decode: %v", err)
	}
	db, _ := decoded.AsBytes()
	if string(db) != "hello" {
		t.Fatalf("decoded = %q", db)
	}
}

func TestFnURLEncode(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)
	v, _, err := callBuiltin(t, g, "urlencode", []value.Value{value.String("a b&c")}, nil)
	if err != nil {
		t.Fatalf("urlencode: %v", err)
	}
	s, _ := v.AsString()
	if s != "a+b%26c" {
		t.Fatalf("v = %q, want %q", s, "a+b%26c")
	}
}

func TestFnJSONPath(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)
	v, _, err := callBuiltin(t, g, "jsonpath",
		[]value.Value{value.Bytes([]byte(`{"user":{"name":"alice"}}`))},
		map[ast.Identifier]value.Value{"expr": value.String("user.name")},
	)
	if err != nil {
		t.Fatalf("jsonpath: %v", err)
	}
	b, _ := v.AsBytes()
	if string(b) != "alice" {
		t.Fatalf("v = %q, want %q", b, "alice")
	}
}

func TestFnUnknownFunction(t *testing.T) {
	r, _ := newTestRenderer(t)
	g, _ := r.NewGroup(nil, nil)
	_, _, err := callBuiltin(t, g, "not_a_real_function", nil, nil)
	if _, ok := err.(*ErrUnknownFunction); !ok {
		t.Fatalf("err = %v, want ErrUnknownFunction", err)
	}
}

func TestParseTriggerArg(t *testing.T) {
	cases := map[string]bool{
		"":               true,
		"never":          true,
		"no_history":     true,
		"always":         true,
		"5m":             true,
		"not-a-duration": false,
	}
	for s, wantOK := range cases {
		_, err := parseTriggerArg(s)
		if (err == nil) != wantOK {
			t.Errorf("parseTriggerArg(%q): err = %v, want ok=%v", s, err, wantOK)
		}
	}
}
