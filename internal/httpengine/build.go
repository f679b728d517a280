package httpengine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// BuildError wraps a failure to assemble a wire request from a BuildInput:
// a malformed URL, an invalid JSON body, etc. It is always a caller bug
// (bad recipe config or bad render output), never a network failure.
type BuildError struct {
	Cause error
}

func (e *BuildError) Error() string { return fmt.Sprintf("httpengine: build request: %v", e.Cause) }
func (e *BuildError) Unwrap() error { return e.Cause }

// Build assembles a wire-ready request from already-rendered data, per the
// contract in spec.md §4.6: URL first, then query, then headers and body,
// with authentication applied last so it can never be shadowed by an
// explicit header of the same name set earlier.
func Build(in BuildInput) (*WireRequest, error) {
	u, err := url.Parse(in.URL)
	if err != nil {
		return nil, &BuildError{Cause: fmt.Errorf("invalid url %q: %w", in.URL, err)}
	}

	if len(in.Query) > 0 {
		// Append rather than go through url.Values: Encode() sorts by key
		// alphabetically, which would lose the cross-key insertion order
		// BuildInput.Query promises. Any query string already baked into
		// in.URL is left exactly as written and BuildInput.Query is
		// appended after it, in order.
		var b strings.Builder
		b.WriteString(u.RawQuery)
		for _, p := range in.Query {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}
		u.RawQuery = b.String()
	}

	header := make(http.Header, len(in.Headers)+2)
	for _, h := range in.Headers {
		header.Add(h.Name, h.Value)
	}

	var body []byte
	if in.Body != nil && in.Body.Kind != BodyNone {
		contentType, data, err := encodeBody(in.Body)
		if err != nil {
			return nil, &BuildError{Cause: err}
		}
		body = data
		if header.Get("Content-Type") == "" && contentType != "" {
			header.Set("Content-Type", contentType)
		}
	}

	if in.Auth != nil {
		applyAuth(header, in.Auth)
	}

	method := in.Method
	if method == "" {
		method = http.MethodGet
	}

	return &WireRequest{
		Method: method,
		URL:    u,
		Header: header,
		Body:   body,
	}, nil
}

func applyAuth(h http.Header, auth *Auth) {
	switch auth.Kind {
	case AuthBasic:
		req := &http.Request{Header: h}
		req.SetBasicAuth(auth.User, auth.Pass)
	case AuthBearer:
		h.Set("Authorization", "Bearer "+auth.Token)
	}
}
