// Package value implements the render result type described in spec.md §3:
// a tagged union of Null | Bool | Int | Float | String | Bytes | Array |
// Object, plus the canonical byte and JSON conversions functions and the
// HTTP engine rely on.
package value

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags which field of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Object is the ordered map backing Value's Object variant. Preserving
// insertion order matters for canonical JSON serialization (spec.md §4.4)
// and for chains whose source body is itself assembled from a collection.
type Object = orderedmap.OrderedMap[string, Value]

func NewObject() *Object { return orderedmap.New[string, Value]() }

// Value is the tagged union described in spec.md §3. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	bytes []byte
	arr   []Value
	obj   *Object
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, bytes: b} }
func Array(vs []Value) Value     { return Value{kind: KindArray, arr: vs} }
func ObjectOf(o *Object) Value   { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsBytes() ([]byte, bool)    { return v.bytes, v.kind == KindBytes }
func (v Value) AsArray() ([]Value, bool)   { return v.arr, v.kind == KindArray }
func (v Value) AsObject() (*Object, bool)  { return v.obj, v.kind == KindObject }

// ErrWrongKind is returned (wrapped) whenever a caller asked for a kind the
// Value doesn't hold.
type ErrWrongKind struct {
	Want, Got Kind
}

func (e *ErrWrongKind) Error() string {
	return fmt.Sprintf("expected %s value, got %s", e.Want, e.Got)
}
