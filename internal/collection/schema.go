// Package collection loads a Slumber collection file: the YAML document
// defining profiles, a recipe tree, and chains (spec.md §3, §6
// "Collection file format"). Every template-shaped field is parsed eagerly
// at load time via internal/template, so a malformed `{{ ... }}` anywhere
// in the file is reported as part of collection loading rather than
// surfacing later mid-render.
package collection

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/LucasPickering/slumber/internal/chain"
	"github.com/LucasPickering/slumber/internal/template"
)

// Collection is the fully-parsed contents of one collection file.
type Collection struct {
	Profiles map[string]*Profile
	Recipes  *RecipeNode // tree root, always a folder
	Chains   map[string]*chain.Chain
}

// Profile is a named set of template-valued fields available to recipes
// via Field lookups.
type Profile struct {
	ID   string
	Name string
	Data *orderedmap.OrderedMap[string, *template.Template]
}

// RecipeNode is one node of the recipe tree: either a folder (Children
// populated) or a leaf recipe (Recipe populated).
type RecipeNode struct {
	Name     string
	Children *orderedmap.OrderedMap[string, *RecipeNode]
	Recipe   *Recipe
}

// IsFolder reports whether this node groups other nodes rather than being
// a request itself.
func (n *RecipeNode) IsFolder() bool { return n.Children != nil }

// Recipe is a parameterized HTTP request (spec.md §3).
type Recipe struct {
	ID             string
	Name           string
	Method         string
	URL            *template.Template
	Query          *orderedmap.OrderedMap[string, []*template.Template]
	Headers        *orderedmap.OrderedMap[string, *template.Template]
	Body           *RecipeBody
	Authentication *Authentication
	Persist        bool
}

// RecipeBodyKind selects a RecipeBody variant.
type RecipeBodyKind int

const (
	BodyNone RecipeBodyKind = iota
	BodyRaw
	BodyFormURLEncoded
	BodyFormMultipart
	BodyJSON
)

// RecipeBody is the tagged union of request body shapes.
type RecipeBody struct {
	Kind RecipeBodyKind

	// BodyRaw
	RawContent     *template.Template
	RawContentType string // optional override; empty means infer at send time

	// BodyFormURLEncoded, BodyFormMultipart
	Form []FormField

	// BodyJSON
	JSON *StructuredTemplate
}

// FormField is one urlencoded/multipart form entry.
type FormField struct {
	Name  string
	Value *template.Template
}

// StructuredTemplateKind selects a StructuredTemplate variant.
type StructuredTemplateKind int

const (
	STNull StructuredTemplateKind = iota
	STLeaf
	STArray
	STObject
)

// StructuredTemplate mirrors a JSON value's shape (object/array nesting)
// but every scalar position is a Template leaf, rendered at send time
// (spec.md §3 RecipeBody.Json).
type StructuredTemplate struct {
	Kind   StructuredTemplateKind
	Leaf   *template.Template
	Array  []*StructuredTemplate
	Object *orderedmap.OrderedMap[string, *StructuredTemplate]
}

// AuthKind selects an Authentication variant.
type AuthKind int

const (
	AuthNone AuthKind = iota
	AuthBasic
	AuthBearer
)

// Authentication is a recipe's credential source.
type Authentication struct {
	Kind  AuthKind
	User  *template.Template // Basic
	Pass  *template.Template // Basic, optional
	Token *template.Template // Bearer
}
