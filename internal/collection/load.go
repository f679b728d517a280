package collection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/template"
)

// Load reads and parses the collection file at path, returning the parsed
// Collection and a content hash (spec.md §3 "Collection metadata") that
// internal/store uses to recognize the same collection across renames.
func Load(path string) (*Collection, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read collection %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	if err := c.Validate(); err != nil {
		return nil, "", fmt.Errorf("validate collection %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return c, hex.EncodeToString(sum[:]), nil
}

// Parse parses a collection document from bytes, independent of any file
// on disk (used directly by tests and by Load).
func Parse(data []byte) (*Collection, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return &Collection{Profiles: map[string]*Profile{}, Recipes: &RecipeNode{Children: orderedmap.New[string, *RecipeNode]()}, Chains: map[string]*chain.Chain{}}, nil
	}
	doc := root.Content[0]

	entries, err := mapEntries(doc, "")
	if err != nil {
		return nil, err
	}
	fields, err := requireKnownKeys(entries, []string{"profiles", "recipes", "chains"}, "")
	if err != nil {
		return nil, err
	}

	c := &Collection{
		Profiles: map[string]*Profile{},
		Recipes:  &RecipeNode{Children: orderedmap.New[string, *RecipeNode]()},
		Chains:   map[string]*chain.Chain{},
	}

	if e, ok := fields["profiles"]; ok {
		profiles, err := parseProfiles(e.ValueNode)
		if err != nil {
			return nil, err
		}
		c.Profiles = profiles
	}
	if e, ok := fields["recipes"]; ok {
		node, err := parseRecipeNode(e.ValueNode, "recipes", "recipes")
		if err != nil {
			return nil, err
		}
		c.Recipes = node
	}
	if e, ok := fields["chains"]; ok {
		chains, err := parseChains(e.ValueNode)
		if err != nil {
			return nil, err
		}
		c.Chains = chains
	}

	return c, nil
}

func parseProfiles(node *yaml.Node) (map[string]*Profile, error) {
	entries, err := mapEntries(node, "profiles")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Profile, len(entries))
	for _, e := range entries {
		path := "profiles." + e.Key
		fieldEntries, err := mapEntries(e.ValueNode, path)
		if err != nil {
			return nil, err
		}
		p := &Profile{ID: e.Key, Data: orderedmap.New[string, *template.Template]()}
		for _, f := range fieldEntries {
			if f.Key == "name" {
				p.Name, err = scalarString(f.ValueNode, path+".name")
				if err != nil {
					return nil, err
				}
				continue
			}
			tpl, err := parseTemplateField(f.ValueNode, path+"."+f.Key)
			if err != nil {
				return nil, err
			}
			p.Data.Set(f.Key, tpl)
		}
		out[e.Key] = p
	}
	return out, nil
}

// parseRecipeNode distinguishes a folder from a leaf recipe: a folder's
// mapping contains nested identifiers (no "method" key); a leaf carries a
// "method" field per the Recipe schema.
func parseRecipeNode(node *yaml.Node, name, path string) (*RecipeNode, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	isLeaf := false
	for _, e := range entries {
		if e.Key == "method" {
			isLeaf = true
			break
		}
	}
	if isLeaf {
		recipe, err := parseRecipe(name, entries, path)
		if err != nil {
			return nil, err
		}
		return &RecipeNode{Name: name, Recipe: recipe}, nil
	}

	children := orderedmap.New[string, *RecipeNode]()
	for _, e := range entries {
		child, err := parseRecipeNode(e.ValueNode, e.Key, path+"."+e.Key)
		if err != nil {
			return nil, err
		}
		children.Set(e.Key, child)
	}
	return &RecipeNode{Name: name, Children: children}, nil
}

var recipeKeys = []string{"name", "method", "url", "query", "headers", "body", "authentication", "persist"}

func parseRecipe(id string, entries []entry, path string) (*Recipe, error) {
	fields, err := requireKnownKeys(entries, recipeKeys, path)
	if err != nil {
		return nil, err
	}

	r := &Recipe{ID: id, Persist: true}
	if e, ok := fields["name"]; ok {
		if r.Name, err = scalarString(e.ValueNode, path+".name"); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["method"]; ok {
		if r.Method, err = scalarString(e.ValueNode, path+".method"); err != nil {
			return nil, err
		}
	} else {
		return nil, &SchemaError{Path: path, Line: 0, Column: 0, Message: "missing required field \"method\""}
	}
	if e, ok := fields["url"]; ok {
		if r.URL, err = parseTemplateField(e.ValueNode, path+".url"); err != nil {
			return nil, err
		}
	} else {
		return nil, &SchemaError{Path: path, Message: "missing required field \"url\""}
	}
	if e, ok := fields["query"]; ok {
		if r.Query, err = parseQuery(e.ValueNode, path+".query"); err != nil {
			return nil, err
		}
	} else {
		r.Query = orderedmap.New[string, []*template.Template]()
	}
	if e, ok := fields["headers"]; ok {
		if r.Headers, err = parseHeaders(e.ValueNode, path+".headers"); err != nil {
			return nil, err
		}
	} else {
		r.Headers = orderedmap.New[string, *template.Template]()
	}
	if e, ok := fields["body"]; ok {
		if r.Body, err = parseBody(e.ValueNode, path+".body"); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["authentication"]; ok {
		if r.Authentication, err = parseAuthentication(e.ValueNode, path+".authentication"); err != nil {
			return nil, err
		}
	}
	if e, ok := fields["persist"]; ok {
		if r.Persist, err = scalarBool(e.ValueNode, path+".persist", true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// parseQuery accepts either a single Template or a list of Templates per
// key, so `query: { tag: a }` and `query: { tag: [a, b] }` both work.
func parseQuery(node *yaml.Node, path string) (*orderedmap.OrderedMap[string, []*template.Template], error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	out := orderedmap.New[string, []*template.Template]()
	for _, e := range entries {
		fieldPath := path + "." + e.Key
		if e.ValueNode.Kind == yaml.SequenceNode {
			var tpls []*template.Template
			for i, item := range e.ValueNode.Content {
				tpl, err := parseTemplateField(item, fmt.Sprintf("%s[%d]", fieldPath, i))
				if err != nil {
					return nil, err
				}
				tpls = append(tpls, tpl)
			}
			out.Set(e.Key, tpls)
			continue
		}
		tpl, err := parseTemplateField(e.ValueNode, fieldPath)
		if err != nil {
			return nil, err
		}
		out.Set(e.Key, []*template.Template{tpl})
	}
	return out, nil
}

func parseHeaders(node *yaml.Node, path string) (*orderedmap.OrderedMap[string, *template.Template], error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	out := orderedmap.New[string, *template.Template]()
	for _, e := range entries {
		tpl, err := parseTemplateField(e.ValueNode, path+"."+e.Key)
		if err != nil {
			return nil, err
		}
		out.Set(e.Key, tpl)
	}
	return out, nil
}

var rawBodyKeys = []string{"raw", "content_type"}

func parseBody(node *yaml.Node, path string) (*RecipeBody, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]entry, len(entries))
	for _, e := range entries {
		keys[e.Key] = e
	}

	switch {
	case hasAny(keys, "raw"):
		fields, err := requireKnownKeys(entries, rawBodyKeys, path)
		if err != nil {
			return nil, err
		}
		content, err := parseTemplateField(fields["raw"].ValueNode, path+".raw")
		if err != nil {
			return nil, err
		}
		body := &RecipeBody{Kind: BodyRaw, RawContent: content}
		if ct, ok := fields["content_type"]; ok {
			if body.RawContentType, err = scalarString(ct.ValueNode, path+".content_type"); err != nil {
				return nil, err
			}
		}
		return body, nil

	case hasAny(keys, "form_urlencoded"):
		fields, err := parseFormFields(keys["form_urlencoded"].ValueNode, path+".form_urlencoded")
		if err != nil {
			return nil, err
		}
		return &RecipeBody{Kind: BodyFormURLEncoded, Form: fields}, nil

	case hasAny(keys, "form_multipart"):
		fields, err := parseFormFields(keys["form_multipart"].ValueNode, path+".form_multipart")
		if err != nil {
			return nil, err
		}
		return &RecipeBody{Kind: BodyFormMultipart, Form: fields}, nil

	case hasAny(keys, "json"):
		st, err := parseStructuredTemplate(keys["json"].ValueNode, path+".json")
		if err != nil {
			return nil, err
		}
		return &RecipeBody{Kind: BodyJSON, JSON: st}, nil

	default:
		line, col := nodePos(node)
		return nil, &SchemaError{Path: path, Line: line, Column: col, Message: "body must have exactly one of: raw, form_urlencoded, form_multipart, json"}
	}
}

func hasAny(keys map[string]entry, k string) bool {
	_, ok := keys[k]
	return ok
}

func parseFormFields(node *yaml.Node, path string) ([]FormField, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	out := make([]FormField, 0, len(entries))
	for _, e := range entries {
		tpl, err := parseTemplateField(e.ValueNode, path+"."+e.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, FormField{Name: e.Key, Value: tpl})
	}
	return out, nil
}

// parseStructuredTemplate recursively mirrors node's JSON-like shape,
// turning every scalar into a Template leaf (spec.md §3 StructuredTemplate).
func parseStructuredTemplate(node *yaml.Node, path string) (*StructuredTemplate, error) {
	switch node.Kind {
	case yaml.MappingNode:
		entries, err := mapEntries(node, path)
		if err != nil {
			return nil, err
		}
		obj := orderedmap.New[string, *StructuredTemplate]()
		for _, e := range entries {
			child, err := parseStructuredTemplate(e.ValueNode, path+"."+e.Key)
			if err != nil {
				return nil, err
			}
			obj.Set(e.Key, child)
		}
		return &StructuredTemplate{Kind: STObject, Object: obj}, nil

	case yaml.SequenceNode:
		arr := make([]*StructuredTemplate, 0, len(node.Content))
		for i, item := range node.Content {
			child, err := parseStructuredTemplate(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, child)
		}
		return &StructuredTemplate{Kind: STArray, Array: arr}, nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return &StructuredTemplate{Kind: STNull}, nil
		}
		tpl, err := parseTemplateField(node, path)
		if err != nil {
			return nil, err
		}
		return &StructuredTemplate{Kind: STLeaf, Leaf: tpl}, nil

	default:
		line, col := nodePos(node)
		return nil, &SchemaError{Path: path, Line: line, Column: col, Message: "unsupported node kind in json body"}
	}
}

var authBasicKeys = []string{"basic"}
var basicFields = []string{"user", "pass"}
var bearerFields = []string{"token"}

func parseAuthentication(node *yaml.Node, path string) (*Authentication, error) {
	entries, err := mapEntries(node, path)
	if err != nil {
		return nil, err
	}
	fields, err := requireKnownKeys(entries, []string{"basic", "bearer"}, path)
	if err != nil {
		return nil, err
	}
	if e, ok := fields["basic"]; ok {
		inner, err := mapEntries(e.ValueNode, path+".basic")
		if err != nil {
			return nil, err
		}
		innerFields, err := requireKnownKeys(inner, basicFields, path+".basic")
		if err != nil {
			return nil, err
		}
		auth := &Authentication{Kind: AuthBasic}
		if f, ok := innerFields["user"]; ok {
			if auth.User, err = parseTemplateField(f.ValueNode, path+".basic.user"); err != nil {
				return nil, err
			}
		}
		if f, ok := innerFields["pass"]; ok {
			if auth.Pass, err = parseTemplateField(f.ValueNode, path+".basic.pass"); err != nil {
				return nil, err
			}
		}
		return auth, nil
	}
	if e, ok := fields["bearer"]; ok {
		inner, err := mapEntries(e.ValueNode, path+".bearer")
		if err != nil {
			return nil, err
		}
		innerFields, err := requireKnownKeys(inner, bearerFields, path+".bearer")
		if err != nil {
			return nil, err
		}
		auth := &Authentication{Kind: AuthBearer}
		f, ok := innerFields["token"]
		if !ok {
			return nil, &SchemaError{Path: path + ".bearer", Message: "missing required field \"token\""}
		}
		if auth.Token, err = parseTemplateField(f.ValueNode, path+".bearer.token"); err != nil {
			return nil, err
		}
		return auth, nil
	}
	line, col := nodePos(node)
	return nil, &SchemaError{Path: path, Line: line, Column: col, Message: "authentication must have exactly one of: basic, bearer"}
}
