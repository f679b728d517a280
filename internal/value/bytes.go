package value

import "strconv"

// ToBytes implements the conversion rules from spec.md §4.4:
//
//	Null     -> empty
//	Bool     -> "true" / "false"
//	Int      -> canonical decimal
//	Float    -> canonical decimal
//	String   -> UTF-8 bytes
//	Bytes    -> as-is
//	Array/Object -> JSON canonical form (stable key order)
func (v Value) ToBytes() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte{}, nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	case KindString:
		return []byte(v.s), nil
	case KindBytes:
		return v.bytes, nil
	case KindArray, KindObject:
		return CanonicalJSON(v)
	default:
		return nil, &ErrWrongKind{Got: v.kind}
	}
}
