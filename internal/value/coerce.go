package value

import "fmt"

// CoerceString returns v as a Go string for functions that require a
// string-typed argument (e.g. trim, urlencode). Int/Float/Bool are
// stringified using the same canonical rules as ToBytes; Bytes is decoded
// as UTF-8. Null, Array, and Object are not coercible and return an error,
// since silently stringifying a structured value tends to hide bugs rather
// than help (the explicit to_string/jsonpath functions exist for that).
func CoerceString(v Value) (string, error) {
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindBytes:
		return string(v.bytes), nil
	case KindBool, KindInt, KindFloat:
		b, err := v.ToBytes()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("cannot coerce %s to string", v.kind)
	}
}

// CoerceBool returns v as a Go bool, used by keyword arguments like
// sensitive=true/false.
func CoerceBool(v Value) (bool, error) {
	if b, ok := v.AsBool(); ok {
		return b, nil
	}
	return false, fmt.Errorf("cannot coerce %s to bool", v.kind)
}

// Stringify implements the to_string() builtin: every kind gets a textual
// representation, including Array/Object (as canonical JSON) and Null (as
// the empty string), unlike the stricter CoerceString.
func Stringify(v Value) (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindArray, KindObject:
		b, err := CanonicalJSON(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		b, err := v.ToBytes()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Equal reports whether two values are structurally equal. Used by tests.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindBytes:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for pair := a.obj.Oldest(); pair != nil; pair = pair.Next() {
			bv, ok := b.obj.Get(pair.Key)
			if !ok || !Equal(pair.Value, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
