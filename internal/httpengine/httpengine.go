// Package httpengine implements the HTTP Engine (spec.md §4.6, C6): it
// turns an already-rendered, plain-data request description into a
// wire-ready *http.Request, sends it, and reports a classified error or a
// successful Exchange.
//
// Deliberately, this package knows nothing about templates, recipes, or
// chains — those are rendered by internal/render before calling Build, so
// this package stays a leaf with no dependency on any other internal
// package. That mirrors the
// teacher's internal/gitprovider/github.go, which is likewise a thin,
// dependency-light HTTP client wrapper (see doJSON there).
package httpengine

import (
	"net/http"
	"net/url"
)

// BuildInput is a fully-rendered request description: every template has
// already been evaluated to concrete bytes by the render package.
type BuildInput struct {
	Method  string
	URL     string // rendered URL, not yet containing Query
	Query   []QueryParam
	Headers []HeaderField
	Body    *Body
	Auth    *Auth
}

// QueryParam is one rendered query key/value pair. Both repeated keys and
// the order of distinct keys are preserved exactly as declared (spec.md
// §4.6); Build appends them to the URL without alphabetizing.
type QueryParam struct {
	Key   string
	Value string
}

// HeaderField is one rendered header. A slice (not a map) preserves
// insertion order and tolerates repeated header names.
type HeaderField struct {
	Name  string
	Value string
}

// BodyKind selects which RecipeBody variant produced a Body.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyFormURLEncoded
	BodyFormMultipart
	BodyJSON
)

// Body is the rendered request body, already reduced to plain bytes/fields.
type Body struct {
	Kind BodyKind

	// Raw holds the rendered bytes for BodyRaw and the canonical JSON
	// bytes for BodyJSON.
	Raw []byte
	// ContentType is an explicit hint (from the recipe's Raw.content_type)
	// that wins over inference when set, and is ignored for variants that
	// set their own content type (FormURLEncoded, FormMultipart, JSON).
	ContentType string

	// Form holds rendered field values for FormURLEncoded and
	// FormMultipart bodies.
	Form []FormField
}

// FormField is one rendered form field (urlencoded or multipart).
type FormField struct {
	Name  string
	Value string
}

// AuthKind selects which Recipe.authentication variant to apply.
type AuthKind int

const (
	AuthNone AuthKind = iota
	AuthBasic
	AuthBearer
)

// Auth is the rendered authentication to apply last, after all headers.
type Auth struct {
	Kind  AuthKind
	User  string
	Pass  string
	Token string
}

// WireRequest is a fully-built request, ready to send.
type WireRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}
