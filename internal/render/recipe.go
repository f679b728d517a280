package render

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/LucasPickering/slumber/internal/collection"
	"github.com/LucasPickering/slumber/internal/httpengine"
	"github.com/LucasPickering/slumber/internal/template"
	"github.com/LucasPickering/slumber/internal/value"
)

// buildRequest renders every templated field of recipe under g (so they
// all share one Field Cache) into a ready-to-build httpengine.BuildInput.
func buildRequest(ctx context.Context, g *Group, recipe *collection.Recipe) (*httpengine.BuildInput, error) {
	urlRendered, err := g.Template(ctx, recipe.URL)
	if err != nil {
		return nil, fmt.Errorf("render url: %w", err)
	}

	query, err := renderQuery(ctx, g, recipe.Query)
	if err != nil {
		return nil, err
	}

	headers, err := renderHeaders(ctx, g, recipe.Headers)
	if err != nil {
		return nil, err
	}

	body, err := renderBody(ctx, g, recipe.Body)
	if err != nil {
		return nil, err
	}

	auth, err := renderAuth(ctx, g, recipe.Authentication)
	if err != nil {
		return nil, err
	}

	return &httpengine.BuildInput{
		Method:  recipe.Method,
		URL:     string(urlRendered.Bytes),
		Query:   query,
		Headers: headers,
		Body:    body,
		Auth:    auth,
	}, nil
}

func renderQuery(ctx context.Context, g *Group, query *orderedmap.OrderedMap[string, []*template.Template]) ([]httpengine.QueryParam, error) {
	if query == nil {
		return nil, nil
	}
	var out []httpengine.QueryParam
	for pair := query.Oldest(); pair != nil; pair = pair.Next() {
		for _, tpl := range pair.Value {
			rendered, err := g.Template(ctx, tpl)
			if err != nil {
				return nil, fmt.Errorf("render query %q: %w", pair.Key, err)
			}
			// A query template that renders to the empty string is treated
			// as disabled and dropped rather than sent as "key=".
			if len(rendered.Bytes) == 0 {
				continue
			}
			out = append(out, httpengine.QueryParam{Key: pair.Key, Value: string(rendered.Bytes)})
		}
	}
	return out, nil
}

func renderHeaders(ctx context.Context, g *Group, headers *orderedmap.OrderedMap[string, *template.Template]) ([]httpengine.HeaderField, error) {
	if headers == nil {
		return nil, nil
	}
	var out []httpengine.HeaderField
	for pair := headers.Oldest(); pair != nil; pair = pair.Next() {
		rendered, err := g.Template(ctx, pair.Value)
		if err != nil {
			return nil, fmt.Errorf("render header %q: %w", pair.Key, err)
		}
		out = append(out, httpengine.HeaderField{Name: pair.Key, Value: string(rendered.Bytes)})
	}
	return out, nil
}

func renderBody(ctx context.Context, g *Group, body *collection.RecipeBody) (*httpengine.Body, error) {
	if body == nil || body.Kind == collection.BodyNone {
		return nil, nil
	}
	switch body.Kind {
	case collection.BodyRaw:
		rendered, err := g.Template(ctx, body.RawContent)
		if err != nil {
			return nil, fmt.Errorf("render body: %w", err)
		}
		return &httpengine.Body{Kind: httpengine.BodyRaw, Raw: rendered.Bytes, ContentType: body.RawContentType}, nil

	case collection.BodyFormURLEncoded, collection.BodyFormMultipart:
		fields, err := renderFormFields(ctx, g, body.Form)
		if err != nil {
			return nil, err
		}
		kind := httpengine.BodyFormURLEncoded
		if body.Kind == collection.BodyFormMultipart {
			kind = httpengine.BodyFormMultipart
		}
		return &httpengine.Body{Kind: kind, Form: fields}, nil

	case collection.BodyJSON:
		v, err := renderStructuredTemplate(ctx, g, body.JSON)
		if err != nil {
			return nil, fmt.Errorf("render json body: %w", err)
		}
		raw, err := value.CanonicalJSON(v)
		if err != nil {
			return nil, fmt.Errorf("render json body: %w", err)
		}
		return &httpengine.Body{Kind: httpengine.BodyJSON, Raw: raw}, nil

	default:
		return nil, fmt.Errorf("render: unknown body kind %d", body.Kind)
	}
}

func renderFormFields(ctx context.Context, g *Group, fields []collection.FormField) ([]httpengine.FormField, error) {
	out := make([]httpengine.FormField, len(fields))
	for i, f := range fields {
		rendered, err := g.Template(ctx, f.Value)
		if err != nil {
			return nil, fmt.Errorf("render form field %q: %w", f.Name, err)
		}
		out[i] = httpengine.FormField{Name: f.Name, Value: string(rendered.Bytes)}
	}
	return out, nil
}

func renderAuth(ctx context.Context, g *Group, auth *collection.Authentication) (*httpengine.Auth, error) {
	if auth == nil || auth.Kind == collection.AuthNone {
		return nil, nil
	}
	switch auth.Kind {
	case collection.AuthBasic:
		user, err := g.Template(ctx, auth.User)
		if err != nil {
			return nil, fmt.Errorf("render auth user: %w", err)
		}
		var pass string
		if auth.Pass != nil {
			rendered, err := g.Template(ctx, auth.Pass)
			if err != nil {
				return nil, fmt.Errorf("render auth password: %w", err)
			}
			pass = string(rendered.Bytes)
		}
		return &httpengine.Auth{Kind: httpengine.AuthBasic, User: string(user.Bytes), Pass: pass}, nil

	case collection.AuthBearer:
		token, err := g.Template(ctx, auth.Token)
		if err != nil {
			return nil, fmt.Errorf("render auth token: %w", err)
		}
		return &httpengine.Auth{Kind: httpengine.AuthBearer, Token: string(token.Bytes)}, nil

	default:
		return nil, fmt.Errorf("render: unknown auth kind %d", auth.Kind)
	}
}

// renderStructuredTemplate walks a StructuredTemplate into a value.Value,
// preserving JSON shape (spec.md §3 RecipeBody.Json).
func renderStructuredTemplate(ctx context.Context, g *Group, st *collection.StructuredTemplate) (value.Value, error) {
	if st == nil {
		return value.Null(), nil
	}
	switch st.Kind {
	case collection.STNull:
		return value.Null(), nil

	case collection.STLeaf:
		return renderLeafValue(ctx, g, st.Leaf)

	case collection.STArray:
		vals := make([]value.Value, len(st.Array))
		for i, elem := range st.Array {
			v, err := renderStructuredTemplate(ctx, g, elem)
			if err != nil {
				return value.Null(), err
			}
			vals[i] = v
		}
		return value.Array(vals), nil

	case collection.STObject:
		obj := value.NewObject()
		for pair := st.Object.Oldest(); pair != nil; pair = pair.Next() {
			v, err := renderStructuredTemplate(ctx, g, pair.Value)
			if err != nil {
				return value.Null(), err
			}
			obj.Set(pair.Key, v)
		}
		return value.ObjectOf(obj), nil

	default:
		return value.Null(), fmt.Errorf("render: unknown structured template kind %d", st.Kind)
	}
}

// renderLeafValue preserves a leaf's native Value kind when the template is
// a single bare expression (so `"{{ count }}"` embeds a JSON number rather
// than a quoted string), and otherwise concatenates chunks to a string as
// usual.
func renderLeafValue(ctx context.Context, g *Group, tpl *template.Template) (value.Value, error) {
	if len(tpl.Chunks) == 1 && tpl.Chunks[0].Kind == template.ChunkExpr {
		v, _, err := evaluate(ctx, g, g.fs, tpl.Chunks[0].Expr)
		return v, err
	}
	rendered, err := g.Template(ctx, tpl)
	if err != nil {
		return value.Null(), err
	}
	return value.String(string(rendered.Bytes)), nil
}
