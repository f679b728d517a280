package httpengine

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/buger/jsonparser"
)

// encodeBody renders b into its final Content-Type and wire bytes. Multipart
// bodies get a fresh random boundary per call, so encodeBody is not pure.
func encodeBody(b *Body) (contentType string, data []byte, err error) {
	switch b.Kind {
	case BodyRaw:
		ct := b.ContentType
		if ct == "" {
			ct = inferContentType(b.Raw)
		}
		return ct, b.Raw, nil

	case BodyJSON:
		if !looksLikeValidJSON(b.Raw) {
			return "", nil, fmt.Errorf("httpengine: json body is not valid JSON")
		}
		return "application/json", b.Raw, nil

	case BodyFormURLEncoded:
		vals := url.Values{}
		for _, f := range b.Form {
			vals.Add(f.Name, f.Value)
		}
		return "application/x-www-form-urlencoded", []byte(vals.Encode()), nil

	case BodyFormMultipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range b.Form {
			if err := w.WriteField(f.Name, f.Value); err != nil {
				return "", nil, fmt.Errorf("httpengine: multipart field %q: %w", f.Name, err)
			}
		}
		if err := w.Close(); err != nil {
			return "", nil, fmt.Errorf("httpengine: multipart close: %w", err)
		}
		return w.FormDataContentType(), buf.Bytes(), nil

	case BodyNone:
		return "", nil, nil

	default:
		return "", nil, fmt.Errorf("httpengine: unknown body kind %d", b.Kind)
	}
}

// inferContentType is the supplemented content-type inference for Raw
// bodies without an explicit content_type override: valid-UTF-8 bytes that
// parse as JSON get "application/json; charset=utf-8", other valid UTF-8
// gets "text/plain; charset=utf-8", and anything else gets
// application/octet-stream.
func inferContentType(raw []byte) string {
	if utf8.Valid(raw) && looksLikeValidJSON(bytes.TrimSpace(raw)) {
		return "application/json; charset=utf-8"
	}
	if utf8.Valid(raw) {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// looksLikeValidJSON is a cheap structural check, not a full unmarshal: it
// lets jsonparser walk the top-level value and reports whether that walk
// succeeded. Pathological inputs that jsonparser's lazy walk doesn't fully
// validate (e.g. trailing garbage after a scalar) can still pass; a full
// Go json.Unmarshal round trip is not worth paying for on every request
// body just to catch that.
func looksLikeValidJSON(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case '{', '[':
		_, dataType, _, err := jsonparser.Get(data)
		return err == nil && dataType != jsonparser.NotExist
	case '"':
		_, err := jsonparser.ParseString(data)
		return err == nil
	case 't', 'f':
		return strings.HasPrefix(string(data), "true") || strings.HasPrefix(string(data), "false")
	case 'n':
		return strings.HasPrefix(string(data), "null")
	default:
		_, err := jsonparser.ParseFloat(data)
		return err == nil
	}
}
