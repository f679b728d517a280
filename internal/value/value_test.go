package value

import "testing"

func TestToBytes(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(1.5), "1.5"},
		{"string", String("hi"), "hi"},
		{"bytes", Bytes([]byte("raw")), "raw"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.v.ToBytes()
			if err != nil {
				t.Fatalf("ToBytes: %v", err)
			}
			if string(got) != c.want {
				t.Errorf("ToBytes() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestToBytesArrayIsCanonicalJSON(t *testing.T) {
	obj := NewObject()
	obj.Set("b", Int(2))
	obj.Set("a", Int(1))
	v := Array([]Value{ObjectOf(obj), String("x")})

	got, err := v.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	want := `[{"b":2,"a":1},"x"]`
	if string(got) != want {
		t.Errorf("ToBytes() = %s, want %s", got, want)
	}
}

func TestEqual(t *testing.T) {
	a := Array([]Value{Int(1), String("x")})
	b := Array([]Value{Int(1), String("x")})
	c := Array([]Value{Int(1), String("y")})

	if !Equal(a, b) {
		t.Error("expected a == b")
	}
	if Equal(a, c) {
		t.Error("expected a != c")
	}
}

func TestStringifyNullIsEmpty(t *testing.T) {
	s, err := Stringify(Null())
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if s != "" {
		t.Errorf("Stringify(Null()) = %q, want empty", s)
	}
}

func TestCoerceStringRejectsStructured(t *testing.T) {
	if _, err := CoerceString(Array(nil)); err == nil {
		t.Error("expected error coercing array to string")
	}
}
