package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
)

// CanonicalJSON serializes v as JSON with a stable key order: Object values
// are walked in their OrderedMap insertion order rather than a re-sorted
// order, matching the "stable key order" requirement in spec.md §4.4. Bytes
// values (which have no native JSON representation) are base64-encoded.
func CanonicalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindBytes:
		enc, err := json.Marshal(base64.StdEncoding.EncodeToString(v.bytes))
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		i := 0
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyEnc, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := writeJSON(buf, pair.Value); err != nil {
				return err
			}
			i++
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

// FromAny converts a generic decoded-JSON value (as produced by
// encoding/json into `any`: nil, bool, float64, string, []any, map[string]any)
// into a Value. Object key order is NOT preserved by this path, since
// encoding/json's map[string]any decode already lost it; callers that need
// order-preserving JSON decode (e.g. a chain's jsonpath selector) should
// walk the source directly instead (see internal/chain/jsonpath.go).
func FromAny(a any) Value {
	switch t := a.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = FromAny(e)
		}
		return Array(vs)
	case map[string]any:
		obj := NewObject()
		for k, v := range t {
			obj.Set(k, FromAny(v))
		}
		return ObjectOf(obj)
	default:
		return Null()
	}
}
